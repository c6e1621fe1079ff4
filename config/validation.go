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

// ValidationErrors collects every problem found in a Config
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	lines := make([]string, 0, len(errs))
	for _, e := range errs {
		lines = append(lines, e.Error())
	}
	return strings.Join(lines, "\n")
}

var (
	validDrivers  = []string{"postgres", "sqlite"}
	validBackends = []string{"local", "s3"}
	validFormats  = []string{"json", "console"}
)

// ValidateConfig checks if the configuration meets the requirements for its environment
func ValidateConfig(cfg *Config) error {
	var errs ValidationErrors

	if cfg.ServerPort == "" {
		errs = append(errs, ValidationError{"SERVER_PORT", "is required"})
	}
	if !contains(validDrivers, cfg.DBDriver) {
		errs = append(errs, ValidationError{"DB_DRIVER", fmt.Sprintf("must be one of %s", strings.Join(validDrivers, ", "))})
	}
	if !contains(validBackends, cfg.StorageBackend) {
		errs = append(errs, ValidationError{"STORAGE_BACKEND", fmt.Sprintf("must be one of %s", strings.Join(validBackends, ", "))})
	}
	if !contains(validFormats, cfg.LogFormat) {
		errs = append(errs, ValidationError{"LOG_FORMAT", fmt.Sprintf("must be one of %s", strings.Join(validFormats, ", "))})
	}
	if cfg.StorageBackend == "s3" && cfg.S3BucketName == "" {
		errs = append(errs, ValidationError{"S3_BUCKET_NAME", "is required when STORAGE_BACKEND is s3"})
	}
	if cfg.DBDriver == "postgres" && (cfg.DBHost == "" || cfg.DBName == "") {
		errs = append(errs, ValidationError{"DB_HOST", "host and database name are required for postgres"})
	}
	if cfg.TokenTTL <= 0 {
		errs = append(errs, ValidationError{"TOKEN_TTL", "must be positive"})
	}
	if cfg.RecipeCreateLimit < 0 {
		errs = append(errs, ValidationError{"RECIPE_CREATE_LIMIT", "must not be negative"})
	}

	switch cfg.Environment {
	case Production, CI:
		// sensitive values must be supplied outside development
		if cfg.JWTSecret == "" {
			errs = append(errs, ValidationError{"JWT_SECRET", "jwt_secret secret or JWT_SECRET is required"})
		}
		if cfg.DBDriver == "postgres" && cfg.DBPassword == "" {
			errs = append(errs, ValidationError{"DB_PASSWORD", "db_password secret or DB_PASSWORD is required"})
		}
	default:
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = "dev-secret-change-me"
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
