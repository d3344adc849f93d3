// Package config provides configuration management for SwiftBase.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration structure for SwiftBase.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Realtime  RealtimeConfig  `mapstructure:"realtime"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	CORS CORSConfig `mapstructure:"cors"`

	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// MaxBodySize is the maximum accepted request body size in bytes.
	MaxBodySize int64 `mapstructure:"max_body_size"`

	// APIVersion is advertised on every response (API-Version header).
	APIVersion string `mapstructure:"api_version"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	AllowedOrigins   []string      `mapstructure:"allowed_origins"`
	AllowedMethods   []string      `mapstructure:"allowed_methods"`
	AllowedHeaders   []string      `mapstructure:"allowed_headers"`
	ExposedHeaders   []string      `mapstructure:"exposed_headers"`
	AllowCredentials bool          `mapstructure:"allow_credentials"`
	MaxAge           time.Duration `mapstructure:"max_age"`
}

// DatabaseConfig holds database settings.
type DatabaseConfig struct {
	// Path to the SQLite database file.
	Path string `mapstructure:"path"`

	WALMode     bool          `mapstructure:"wal_mode"`
	CacheSize   int           `mapstructure:"cache_size"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
	ForeignKeys bool          `mapstructure:"foreign_keys"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	JWT      JWTConfig      `mapstructure:"jwt"`
	Password PasswordConfig `mapstructure:"password"`

	AllowRegistration bool `mapstructure:"allow_registration"`
}

// JWTConfig holds JWT signing settings.
type JWTConfig struct {
	// Secret key for signing tokens (required, min 32 chars).
	Secret string `mapstructure:"secret"`

	AccessTTL  time.Duration `mapstructure:"access_ttl"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
	Issuer     string        `mapstructure:"issuer"`
}

// PasswordConfig holds password requirements.
type PasswordConfig struct {
	MinLength int `mapstructure:"min_length"`
}

// RealtimeConfig holds WebSocket hub settings.
type RealtimeConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	MaxConnections      int           `mapstructure:"max_connections"`
	MaxSubscriptions    int           `mapstructure:"max_subscriptions_per_connection"`
	SendBufferSize      int           `mapstructure:"send_buffer_size"`
	PingInterval        time.Duration `mapstructure:"ping_interval"`
	PongTimeout         time.Duration `mapstructure:"pong_timeout"`
}

// StorageConfig holds file metadata service settings.
type StorageConfig struct {
	// Path is the root directory for stored file payloads when Backend
	// is "filesystem".
	Path string `mapstructure:"path"`

	// Backend selects the payload store: "filesystem" (default) or
	// "s3". The orphan sweep only runs against the filesystem backend.
	Backend string `mapstructure:"backend"`

	S3 S3Config `mapstructure:"s3"`

	// MaxFileSize is the hard per-file limit in bytes (spec: 100 MiB).
	MaxFileSize int64 `mapstructure:"max_file_size"`

	// CompressAbove compresses payloads larger than this many bytes.
	// Zero disables compression.
	CompressAbove int64 `mapstructure:"compress_above"`

	// SweepSchedule is a cron expression for the orphan-cleanup sweep.
	SweepSchedule string `mapstructure:"sweep_schedule"`
}

// S3Config holds settings for the optional S3-compatible object
// storage backend.
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Caller bool   `mapstructure:"caller"`
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
