package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/chirpstack-social/backend/config"
	"github.com/chirpstack-social/backend/internal/api"
	"github.com/chirpstack-social/backend/internal/middleware"
	"github.com/chirpstack-social/backend/internal/service"
)

// SetupRouter configures the application routes. CurrentUser runs on
// every request; RequireAuth is attached per-route by the handlers.
func SetupRouter(
	cfg *config.Config,
	db *gorm.DB,
	sessions service.SessionStore,
	authHandler *api.AuthHandler,
	userHandler *api.UserHandler,
	messageHandler *api.MessageHandler,
) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORS(cfg.FrontendOrigin))
	router.Use(middleware.CurrentUser(sessions, db))

	requireAuth := middleware.RequireAuth(sessions)

	authHandler.RegisterRoutes(router)
	userHandler.RegisterRoutes(router, requireAuth)
	messageHandler.RegisterRoutes(router, requireAuth)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
