// Package config handles application configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultSecretKey signs flash cookies in development.
const DefaultSecretKey = "dev-secret-key"

// Config holds all configuration for the application.
type Config struct {
	App    AppConfig
	Server ServerConfig
	Store  StoreConfig
	Redis  RedisConfig
	URL    URLConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Env       string
	LogLevel  string
	LogFormat string
	SecretKey string
}

// IsDevelopment returns true if the app is running in development mode.
func (a AppConfig) IsDevelopment() bool {
	return a.Env == "development" || a.Env == "dev"
}

// WeakSecret reports whether the development SECRET_KEY is in use outside
// development. Production refuses it in Validate.
func (a AppConfig) WeakSecret() bool {
	return a.SecretKey == DefaultSecretKey && !a.IsDevelopment()
}

// IsProduction returns true if the app is running in production mode.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production" || a.Env == "prod"
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustProxy      bool
	TrustedProxies  []string
}

// Address returns the server address in host:port format.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Store drivers.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// StoreConfig holds the location of the mapping store.
// Location is a SQLite file path or a postgres:// URL.
type StoreConfig struct {
	Location        string
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// Driver returns the database/sql driver name for Location.
func (s StoreConfig) Driver() string {
	lower := strings.ToLower(s.Location)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// RedisConfig holds the optional existence cache configuration.
type RedisConfig struct {
	URL      string
	CacheTTL time.Duration
}

// Enabled returns true if a Redis URL is configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

// URLConfig holds URL shortener specific configuration.
type URLConfig struct {
	BaseURL             string
	ShortCodeLen        int
	MaxGenerateAttempts int
	RecentLimit         int
	APIListLimit        int
	BlockPrivateHosts   bool
	BlockedHosts        []string
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" by default)
// without overriding variables already set. Missing files are ignored.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	// App config
	cfg.App.Env = getEnvOrDefault("APP_ENV", "development")
	cfg.App.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	cfg.App.LogFormat = getEnvOrDefault("LOG_FORMAT", "json")
	cfg.App.SecretKey = getEnvOrDefault("SECRET_KEY", DefaultSecretKey)

	// Server config
	cfg.Server.Host = getEnvOrDefault("SERVER_HOST", "0.0.0.0")

	portKey := "PORT"
	if os.Getenv(portKey) == "" {
		portKey = "SERVER_PORT"
	}
	port, err := getEnvAsInt(portKey, 5000)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", portKey, err)
	}
	cfg.Server.Port = port

	readTimeout, err := getEnvAsDuration("SERVER_READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_READ_TIMEOUT: %w", err)
	}
	cfg.Server.ReadTimeout = readTimeout

	writeTimeout, err := getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT: %w", err)
	}
	cfg.Server.WriteTimeout = writeTimeout

	shutdownTimeout, err := getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT: %w", err)
	}
	cfg.Server.ShutdownTimeout = shutdownTimeout

	trustProxy, err := getEnvAsBool("SERVER_TRUST_PROXY", false)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_TRUST_PROXY: %w", err)
	}
	cfg.Server.TrustProxy = trustProxy
	cfg.Server.TrustedProxies = getEnvAsList("SERVER_TRUSTED_PROXIES")

	// Store config
	cfg.Store.Location = getEnvOrDefault("DATABASE", "db.sqlite3")

	maxOpenConns, err := getEnvAsInt("DB_MAX_OPEN_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}
	cfg.Store.MaxOpenConns = maxOpenConns

	connMaxLifetime, err := getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_CONN_MAX_LIFETIME: %w", err)
	}
	cfg.Store.ConnMaxLifetime = connMaxLifetime

	// Redis config
	cfg.Redis.URL = getEnvOrDefault("REDIS_URL", "")
	cacheTTL, err := getEnvAsDuration("REDIS_CACHE_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_CACHE_TTL: %w", err)
	}
	cfg.Redis.CacheTTL = cacheTTL

	// URL config
	cfg.URL.BaseURL = strings.TrimRight(getEnvOrDefault("BASE_URL", ""), "/")

	codeLen, err := getEnvAsInt("SHORT_CODE_LEN", 6)
	if err != nil {
		return nil, fmt.Errorf("invalid SHORT_CODE_LEN: %w", err)
	}
	cfg.URL.ShortCodeLen = codeLen

	attempts, err := getEnvAsInt("URL_MAX_GENERATE_ATTEMPTS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid URL_MAX_GENERATE_ATTEMPTS: %w", err)
	}
	cfg.URL.MaxGenerateAttempts = attempts
	cfg.URL.RecentLimit = 20
	cfg.URL.APIListLimit = 100

	blockPrivate, err := getEnvAsBool("URL_BLOCK_PRIVATE_HOSTS", false)
	if err != nil {
		return nil, fmt.Errorf("invalid URL_BLOCK_PRIVATE_HOSTS: %w", err)
	}
	cfg.URL.BlockPrivateHosts = blockPrivate
	cfg.URL.BlockedHosts = getEnvAsList("URL_BLOCKED_HOSTS")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks value ranges that Load cannot express through parsing.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("port %d out of range 0-65535", c.Server.Port)
	}
	if c.Store.Location == "" {
		return errors.New("store location cannot be empty")
	}
	if c.URL.ShortCodeLen < 4 || c.URL.ShortCodeLen > 30 {
		return fmt.Errorf("short code length %d out of range 4-30", c.URL.ShortCodeLen)
	}
	if c.URL.MaxGenerateAttempts < 1 {
		return fmt.Errorf("max generate attempts must be positive, got %d", c.URL.MaxGenerateAttempts)
	}
	if c.App.IsProduction() && c.App.SecretKey == DefaultSecretKey {
		return errors.New("SECRET_KEY must be set in production")
	}
	return nil
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt returns the environment variable as an integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, err
	}
	return value, nil
}

// getEnvAsDuration returns the environment variable as a duration.
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, err
	}
	return value, nil
}

// getEnvAsBool returns the environment variable as a boolean.
func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue, nil
	}
	return strconv.ParseBool(valueStr)
}

// getEnvAsList splits a comma-separated variable, dropping empty items.
func getEnvAsList(key string) []string {
	var items []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
