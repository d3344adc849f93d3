package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects all validation failures found in one pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range e {
		sb.WriteString("  - ")
		sb.WriteString(err.Error())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Validate checks a fully loaded Config for internally consistent values.
// It does not check JWT secret strength; ValidateJWTSecret checks that
// separately and is not called by Validate.
func Validate(cfg *Config) error {
	var errs ValidationErrors

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateDatabase(&cfg.Database)...)
	errs = append(errs, validateAuth(&cfg.Auth)...)
	errs = append(errs, validateRealtime(&cfg.Realtime)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateServer(cfg *ServerConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.Port < 1 || cfg.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Message: "must be between 1 and 65535",
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, ValidationError{Field: "server.read_timeout", Message: "must be non-negative"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, ValidationError{Field: "server.write_timeout", Message: "must be non-negative"})
	}
	if cfg.MaxBodySize < 0 {
		errs = append(errs, ValidationError{Field: "server.max_body_size", Message: "must be non-negative"})
	}

	if cfg.CORS.Enabled && cfg.CORS.AllowCredentials {
		for _, origin := range cfg.CORS.AllowedOrigins {
			if origin == "*" {
				errs = append(errs, ValidationError{
					Field:   "server.cors",
					Message: "security: allow_credentials=true with allowed_origins=[\"*\"] is insecure",
				})
				break
			}
		}
	}

	return errs
}

func validateDatabase(cfg *DatabaseConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.Path == "" {
		errs = append(errs, ValidationError{Field: "database.path", Message: "required"})
	}
	if cfg.MaxOpenConns < 1 {
		errs = append(errs, ValidationError{Field: "database.max_open_conns", Message: "must be at least 1"})
	}

	return errs
}

func validateAuth(cfg *AuthConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.JWT.AccessTTL < time.Second {
		errs = append(errs, ValidationError{Field: "auth.jwt.access_ttl", Message: "must be at least 1 second"})
	}
	if cfg.JWT.RefreshTTL < cfg.JWT.AccessTTL {
		errs = append(errs, ValidationError{
			Field:   "auth.jwt.refresh_ttl",
			Message: "must be greater than or equal to access_ttl",
		})
	}
	if cfg.Password.MinLength < 8 {
		errs = append(errs, ValidationError{
			Field:   "auth.password.min_length",
			Message: "must be at least 8 for security",
		})
	}

	return errs
}

func validateRealtime(cfg *RealtimeConfig) ValidationErrors {
	var errs ValidationErrors

	if !cfg.Enabled {
		return errs
	}

	if cfg.MaxConnections < 1 {
		errs = append(errs, ValidationError{Field: "realtime.max_connections", Message: "must be at least 1"})
	}
	if cfg.MaxSubscriptions < 1 {
		errs = append(errs, ValidationError{
			Field:   "realtime.max_subscriptions_per_connection",
			Message: "must be at least 1",
		})
	}
	if cfg.SendBufferSize < 1 {
		errs = append(errs, ValidationError{Field: "realtime.send_buffer_size", Message: "must be at least 1"})
	}
	if cfg.PingInterval < time.Second {
		errs = append(errs, ValidationError{Field: "realtime.ping_interval", Message: "must be at least 1 second"})
	}
	if cfg.PongTimeout <= cfg.PingInterval {
		errs = append(errs, ValidationError{
			Field:   "realtime.pong_timeout",
			Message: "must be greater than ping_interval",
		})
	}

	return errs
}

func validateStorage(cfg *StorageConfig) ValidationErrors {
	var errs ValidationErrors

	if cfg.Path == "" {
		errs = append(errs, ValidationError{Field: "storage.path", Message: "required"})
	}
	if strings.Contains(cfg.Path, "..") {
		errs = append(errs, ValidationError{Field: "storage.path", Message: "path traversal (..) not allowed"})
	}
	if cfg.MaxFileSize < 1 {
		errs = append(errs, ValidationError{Field: "storage.max_file_size", Message: "must be at least 1 byte"})
	}

	return errs
}

func validateLogging(cfg *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLevels[cfg.Level] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: "must be one of: trace, debug, info, warn, error, fatal, panic",
		})
	}

	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Format] {
		errs = append(errs, ValidationError{Field: "logging.format", Message: "must be 'json' or 'console'"})
	}

	return errs
}

// ValidateJWTSecret enforces secret strength. Kept separate from Validate
// since the secret is resolved from the environment, not the config file.
func ValidateJWTSecret(secret string) error {
	if secret == "" {
		return ValidationError{Field: "auth.jwt.secret", Message: "required for production use"}
	}
	if len(secret) < 32 {
		return ValidationError{Field: "auth.jwt.secret", Message: "must be at least 32 characters"}
	}
	return nil
}
