// Package config loads the service configuration from environment variables.
// Every value has a default except the optional database URL, and the whole
// configuration is validated on startup so a bad deployment fails fast.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Upload   UploadConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Static   StaticConfig
	ADIF     ADIFConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port honours the PORT convention of container platforms first.
	Port int `env:"PORT" envAlt:"SERVER_PORT" default:"3000"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is enforced by middleware on every request.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds the optional conversion history database.
// History is disabled when URL is empty.
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL" envAlt:"DB_URL"`
	MaxConns        int           `env:"DB_MAX_CONNS" default:"4"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"0"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// Enabled reports whether a history database is configured.
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// UploadConfig holds log upload and conversion settings.
type UploadConfig struct {
	// MaxFileSize accepts plain bytes or a KiB/MiB suffix.
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"20MiB"`

	// DefaultCharset applies when a request names no encoding.
	DefaultCharset string `env:"UPLOAD_DEFAULT_CHARSET" default:"shift_jis"`

	MaxConcurrent int           `env:"UPLOAD_MAX_CONCURRENT" default:"5"`
	MaxWaitTime   time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`

	// RowWorkers is how many rows of one log are normalized in parallel.
	RowWorkers int `env:"UPLOAD_ROW_WORKERS" default:"4"`

	Timeout time.Duration `env:"UPLOAD_TIMEOUT" default:"2m"`
}

// RateLimitConfig holds per-IP rate limiting for the conversion endpoints.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"30"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies lists proxy CIDRs whose forwarding headers are believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// AllowedOrigins lists origins allowed to call the API from a browser.
	// A single "*" allows any origin.
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"https://sotalive.net"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" default:"info"`
	Format string `env:"LOG_FORMAT" default:"text"`
}

// StaticConfig holds the front-end asset directory.
type StaticConfig struct {
	// Dir is served at "/". Unknown paths fall back to Dir/index.html.
	// Empty disables static serving.
	Dir string `env:"STATIC_DIR" default:"static"`
}

// ADIFConfig holds settings for generated ADIF documents.
type ADIFConfig struct {
	ProgramID string `env:"ADIF_PROGRAM_ID" default:"adifgen"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
