package config

import "time"

// Default server/database/auth/storage/realtime settings.
const (
	DefaultHost = "0.0.0.0"
	DefaultPort = 8090

	DefaultReadTimeout    = 15 * time.Second
	DefaultWriteTimeout   = 15 * time.Second
	DefaultIdleTimeout    = 60 * time.Second
	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxBodySize    = 10 << 20 // 10 MiB
	DefaultAPIVersion     = "1.0"

	DefaultCORSMaxAge = 300 * time.Second

	DefaultDatabasePath      = "data/swiftbase.db"
	DefaultCacheSize         = -20000 // ~20MB, negative means KB
	DefaultBusyTimeout       = 5 * time.Second
	DefaultMaxOpenConns      = 10
	DefaultMaxIdleConns      = 5
	DefaultConnMaxLifetime   = time.Hour

	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
	DefaultIssuer     = "swiftbase"

	DefaultPasswordMinLength = 8

	DefaultMaxConnections   = 1000
	DefaultMaxSubscriptions = 100
	DefaultSendBufferSize   = 256
	DefaultPingInterval     = 30 * time.Second
	DefaultPongTimeout      = 60 * time.Second

	DefaultStoragePath      = "data/storage"
	DefaultMaxFileSize      = 100 << 20 // 100 MiB
	DefaultCompressAbove    = 4 << 10   // 4 KiB
	DefaultSweepSchedule    = "@every 1h"
)

// Default returns a Config populated with SwiftBase's default values.
// These are the values applied before env vars and config file overrides.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           DefaultHost,
			Port:           DefaultPort,
			ReadTimeout:    DefaultReadTimeout,
			WriteTimeout:   DefaultWriteTimeout,
			IdleTimeout:    DefaultIdleTimeout,
			RequestTimeout: DefaultRequestTimeout,
			MaxBodySize:    DefaultMaxBodySize,
			APIVersion:     DefaultAPIVersion,
			CORS: CORSConfig{
				Enabled:          true,
				AllowedOrigins:   []string{"*"},
				AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Authorization", "Content-Type"},
				ExposedHeaders:   []string{"API-Version"},
				AllowCredentials: false,
				MaxAge:           DefaultCORSMaxAge,
			},
		},
		Database: DatabaseConfig{
			Path:            DefaultDatabasePath,
			WALMode:         true,
			CacheSize:       DefaultCacheSize,
			BusyTimeout:     DefaultBusyTimeout,
			ForeignKeys:     true,
			MaxOpenConns:    DefaultMaxOpenConns,
			MaxIdleConns:    DefaultMaxIdleConns,
			ConnMaxLifetime: DefaultConnMaxLifetime,
		},
		Auth: AuthConfig{
			JWT: JWTConfig{
				AccessTTL:  DefaultAccessTTL,
				RefreshTTL: DefaultRefreshTTL,
				Issuer:     DefaultIssuer,
			},
			Password: PasswordConfig{
				MinLength: DefaultPasswordMinLength,
			},
			AllowRegistration: true,
		},
		Realtime: RealtimeConfig{
			Enabled:          true,
			MaxConnections:   DefaultMaxConnections,
			MaxSubscriptions: DefaultMaxSubscriptions,
			SendBufferSize:   DefaultSendBufferSize,
			PingInterval:     DefaultPingInterval,
			PongTimeout:      DefaultPongTimeout,
		},
		Storage: StorageConfig{
			Path:          DefaultStoragePath,
			Backend:       "filesystem",
			MaxFileSize:   DefaultMaxFileSize,
			CompressAbove: DefaultCompressAbove,
			SweepSchedule: DefaultSweepSchedule,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Caller: false,
		},
	}
}
