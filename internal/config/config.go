// Package config provides centralized configuration management for the converter.
// It loads configuration from environment variables with defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Temp     TempConfig
	Clients  ClientConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on, falling back to PORT as set by most
	// container platforms (default: 8080)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request, upload included (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout bounds writing the response. 0 disables it so that long
	// conversions are never cut off (default: 0s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// UploadConfig holds SQL dump upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum accepted request body in bytes (default: 100MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"104857600"`

	// DefaultHost is the database host used when the form omits one
	DefaultHost string `env:"UPLOAD_DEFAULT_HOST" default:"127.0.0.1"`
}

// TempConfig holds settings for the per-request temporary files.
type TempConfig struct {
	// Dir is where scripts and workbooks are staged (default: os.TempDir())
	Dir string `env:"TEMP_DIR"`

	// DeleteAttempts bounds how often a locked file is retried (default: 5)
	DeleteAttempts int `env:"TEMP_DELETE_ATTEMPTS" default:"5"`

	// DeleteDelay is the pause between delete attempts (default: 1s)
	DeleteDelay time.Duration `env:"TEMP_DELETE_DELAY" default:"1s"`
}

// ClientConfig names the database command-line clients used to load dumps.
type ClientConfig struct {
	// MySQLBin is the mysql client executable, resolved on PATH (default: mysql)
	MySQLBin string `env:"MYSQL_CLIENT_BIN" default:"mysql"`

	// PsqlBin is the PostgreSQL client executable (default: psql)
	PsqlBin string `env:"PSQL_CLIENT_BIN" default:"psql"`

	// PsqlMaintenanceDB is the database psql connects to before the dump
	// creates its own (default: postgres)
	PsqlMaintenanceDB string `env:"PSQL_MAINTENANCE_DB" default:"postgres"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// CORSAllowedOrigins lists origins allowed to call the API (default: *)
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
