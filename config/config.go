package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// Session configuration
	SessionTTLHours int

	// Avatar storage
	S3Bucket  string
	AWSRegion string

	// Origin allowed to call the API (the rendering frontend)
	FrontendOrigin string
}

// LoadConfig builds a Config from environment variables. In development a
// .env file is picked up first so local runs need no exported variables.
func LoadConfig() (*Config, error) {
	if GetEnvironment() == Development {
		// Missing .env is fine; exported variables still apply.
		_ = godotenv.Load()
	}

	cfg := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		ServerHost:      getEnv("SERVER_HOST", "0.0.0.0"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "5432"),
		DBUser:          os.Getenv("DB_USER"),
		DBPassword:      os.Getenv("DB_PASSWORD"),
		DBName:          getEnv("DB_NAME", "chirpstack"),
		DBSSLMode:       getEnv("DB_SSL_MODE", "disable"),
		RedisHost:       getEnv("REDIS_HOST", "localhost"),
		RedisPort:       getEnv("REDIS_PORT", "6379"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:         0,
		RedisURL:        os.Getenv("REDIS_URL"),
		SessionTTLHours: getEnvInt("SESSION_TTL_HOURS", 24),
		S3Bucket:        getEnv("S3_BUCKET_NAME", "chirpstack-avatars"),
		AWSRegion:       os.Getenv("AWS_REGION"),
		FrontendOrigin:  getEnv("FRONTEND_ORIGIN", "http://localhost:5173"),
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil || n <= 0 {
		return fallback
	}
	return n
}
