package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/chirpstack-social/backend/config"
	"github.com/chirpstack-social/backend/internal/api"
	"github.com/chirpstack-social/backend/internal/database"
	"github.com/chirpstack-social/backend/internal/router"
	"github.com/chirpstack-social/backend/internal/server"
	"github.com/chirpstack-social/backend/internal/service"
)

func main() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	if config.IsDevelopment() {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.SetFormatter(&logrus.TextFormatter{})
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	db, err := database.New(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
	if err := database.RunMigrations(db); err != nil {
		logrus.WithError(err).Fatal("failed to run migrations")
	}

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to Redis")
	}

	sessions := service.NewRedisSessionStore(redisClient, time.Duration(cfg.SessionTTLHours)*time.Hour)
	authSvc := service.NewAuthService(db)
	userSvc := service.NewUserService(db)
	messageSvc := service.NewMessageService(db)

	// Avatar storage is optional: without it the upload endpoint reports
	// itself unavailable and everything else still works.
	var imageSvc *service.ImageService
	if s3Cfg, err := config.NewS3Config(context.Background(), cfg); err != nil {
		logrus.WithError(err).Warn("avatar storage disabled")
	} else {
		imageSvc = service.NewImageService(db, s3Cfg)
	}

	authHandler := api.NewAuthHandler(authSvc, sessions)
	userHandler := api.NewUserHandler(authSvc, userSvc, messageSvc, imageSvc, sessions)
	messageHandler := api.NewMessageHandler(messageSvc, userSvc, sessions)

	engine := router.SetupRouter(cfg, db, sessions, authHandler, userHandler, messageHandler)

	srv := server.New(engine, cfg.ServerHost, cfg.ServerPort)
	if err := srv.Start(); err != nil {
		logrus.WithError(err).Fatal("server error")
	}
}
