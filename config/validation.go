package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks that everything the process cannot run without is
// present. Credentials have no defaults on purpose.
func ValidateConfig(cfg *Config) error {
	var errs []string

	required := []struct {
		field string
		value string
	}{
		{"SERVER_PORT", cfg.ServerPort},
		{"DB_HOST", cfg.DBHost},
		{"DB_PORT", cfg.DBPort},
		{"DB_NAME", cfg.DBName},
		{"REDIS_HOST", cfg.RedisHost},
		{"REDIS_PORT", cfg.RedisPort},
	}
	for _, r := range required {
		if r.value == "" {
			errs = append(errs, ValidationError{Field: r.field, Message: "is required"}.Error())
		}
	}

	if IsProduction() {
		if cfg.DBUser == "" {
			errs = append(errs, ValidationError{Field: "DB_USER", Message: "is required in production"}.Error())
		}
		if cfg.DBPassword == "" {
			errs = append(errs, ValidationError{Field: "DB_PASSWORD", Message: "is required in production"}.Error())
		}
		if cfg.DBSSLMode == "disable" {
			errs = append(errs, ValidationError{Field: "DB_SSL_MODE", Message: "must not be 'disable' in production"}.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}
