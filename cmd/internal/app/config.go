package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr string
	LogLevel string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	ShutdownTimeout   time.Duration

	DatabaseURL    string
	DBMaxConns     int32
	DBMinConns     int32
	MigrateOnStart bool

	// If true, /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	CORSMaxAgeSeconds    int
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr: EnvString("AUTH_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel: EnvString("AUTH_LOG_LEVEL", "info"),

		ReadHeaderTimeout: EnvDuration("AUTH_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("AUTH_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("AUTH_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("AUTH_HTTP_IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    EnvInt("AUTH_HTTP_MAX_HEADER_BYTES", 1<<20),
		ShutdownTimeout:   EnvDuration("AUTH_SHUTDOWN_TIMEOUT", 10*time.Second),

		DatabaseURL:    EnvString("AUTH_DATABASE_URL", ""),
		DBMaxConns:     EnvInt32("AUTH_DB_MAX_CONNS", 10),
		DBMinConns:     EnvInt32("AUTH_DB_MIN_CONNS", 0),
		MigrateOnStart: EnvBool("AUTH_DB_MIGRATE", true),

		ReadinessRequireDB: EnvBool("AUTH_READINESS_REQUIRE_DB", false),

		CORSAllowedOrigins:   EnvStringSlice("AUTH_CORS_ALLOWED_ORIGINS", nil),
		CORSAllowCredentials: EnvBool("AUTH_CORS_ALLOW_CREDENTIALS", false),
		CORSMaxAgeSeconds:    EnvInt("AUTH_CORS_MAX_AGE_SECONDS", 600),
	}
}
