package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Issuer        IssuerConfig
	AuditDatabase *DatabaseConfig // Optional: auth event audit trail. When nil, auditing is disabled.
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// IssuerConfig holds configuration for the external issuing authority
type IssuerConfig struct {
	// BaseURL is the issuer's backend address (public key, exchange, profiles)
	BaseURL string
	// EntryURL is the issuer's user-facing address for SSO redirects.
	// Defaults to BaseURL when unset.
	EntryURL string
	// PublicKey optionally pre-provisions the PEM verification key,
	// bypassing the remote fetch entirely
	PublicKey string
	// ExpectedServiceName enables the service name claim check when non-empty
	ExpectedServiceName string
	// ServiceName identifies this service in SSO redirects
	ServiceName string
	// KeyTTL bounds how long a fetched verification key is cached
	KeyTTL time.Duration
	// HTTPTimeout applies to all outbound issuer calls
	HTTPTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL database configuration
type DatabaseConfig struct {
	ConnectionString string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or text
}

// New creates a new Config instance by loading environment variables
func New() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Issuer: IssuerConfig{
			BaseURL:             getEnv("ISSUER_BASE_URL", ""),
			EntryURL:            getEnv("ISSUER_ENTRY_URL", ""),
			PublicKey:           getEnv("ISSUER_PUBLIC_KEY", ""),
			ExpectedServiceName: getEnv("EXPECTED_SERVICE_NAME", ""),
			ServiceName:         getEnv("SERVICE_NAME", "external-service"),
			KeyTTL:              getEnvAsDuration("ISSUER_KEY_TTL", 1*time.Hour),
			HTTPTimeout:         getEnvAsDuration("ISSUER_HTTP_TIMEOUT", 10*time.Second),
		},
		AuditDatabase: loadAuditDatabaseConfig(),
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	if cfg.Issuer.EntryURL == "" {
		cfg.Issuer.EntryURL = cfg.Issuer.BaseURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Issuer.BaseURL == "" {
		return fmt.Errorf("issuer base URL is required: set ISSUER_BASE_URL")
	}
	if _, err := url.Parse(c.Issuer.BaseURL); err != nil {
		return fmt.Errorf("issuer base URL is invalid: %w", err)
	}
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}
	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// LogString returns a safe string for logging (no password)
func (c *DatabaseConfig) LogString() string {
	u, err := url.Parse(c.ConnectionString)
	if err != nil {
		return "host=<from DATABASE_URL>"
	}
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	db := strings.TrimPrefix(u.Path, "/")
	return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
}

// loadAuditDatabaseConfig loads audit DB config from DATABASE_URL.
// Returns nil when not set (auditing disabled).
func loadAuditDatabaseConfig() *DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		return nil
	}
	return &DatabaseConfig{
		ConnectionString: dbURL,
		MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
