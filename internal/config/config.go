package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/nahidhasan98/orgsync/internal/validation"
)

// Config holds the application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Logging configuration
	Log LogConfig

	// Security configuration
	Security SecurityConfig

	// GitHub webhook configuration
	GitHub GitHubConfig

	// Content repository the records are synchronized from
	Repository RepositoryConfig

	// Company registry used to resolve canonical names
	Registry RegistryConfig

	// Background sync worker
	Sync SyncConfig

	// WhatsApp batch notifications
	WhatsApp WhatsAppConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Driver string
	DSN    string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string
	Format     string // "json" or "text"
	File       string // optional rotating log file
	MaxSizeMB  int
	MaxBackups int
}

// SecurityConfig holds security-specific configuration
type SecurityConfig struct {
	// API Keys - required for the manual /sync endpoints
	APIKeys []string
}

// GitHubConfig holds GitHub webhook configuration
type GitHubConfig struct {
	WebhookSecret string // Secret for webhook validation
}

// RepositoryConfig describes where organisation files are read from
type RepositoryConfig struct {
	Path        string // owner/name
	Branch      string
	UserAgent   string
	ContentHost string // raw file host
	APIHost     string // contents listing API
	HTTPTimeout time.Duration
}

// RegistryConfig holds the company registry lookup configuration
type RegistryConfig struct {
	Host      string
	CacheSize int
	Timeout   time.Duration
}

// SyncConfig holds the sync worker configuration
type SyncConfig struct {
	QueueSize int // batches waiting behind the running one
}

// WhatsAppConfig holds WhatsApp-specific configuration
type WhatsAppConfig struct {
	Enabled    bool
	DSN        string // session store, separate from the records database
	LogLevel   string
	DeviceName string // Custom device name that appears in WhatsApp linked devices
	Recipient  string // JID that receives batch summaries
}

// Ref returns the fully qualified ref of the designated branch
func (r *RepositoryConfig) Ref() string {
	return "refs/heads/" + r.Branch
}

// Load loads configuration from environment variables with sensible defaults
func Load() (*Config, error) {
	// Try to load .env file (ignore errors - it's optional)
	_ = godotenv.Load(".env")

	httpTimeout := getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second)

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", ""),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "sqlite3"),
			DSN:    getEnv("DB_DSN", "file:orgsync.db?_foreign_keys=on"),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "text"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 3),
		},
		Security: SecurityConfig{
			APIKeys: getEnvAsSlice("API_KEYS", []string{}),
		},
		GitHub: GitHubConfig{
			WebhookSecret: getEnv("GITHUB_WEBHOOK_SECRET", ""),
		},
		Repository: RepositoryConfig{
			Path:        strings.Trim(getEnv("REPOSITORY_PATH", ""), "/"),
			Branch:      getEnv("REPOSITORY_BRANCH", "master"),
			UserAgent:   getEnv("USER_AGENT", "orgsync"),
			ContentHost: strings.TrimRight(getEnv("CONTENT_HOST", "https://raw.githubusercontent.com"), "/"),
			APIHost:     strings.TrimRight(getEnv("CONTENT_API_HOST", "https://api.github.com"), "/"),
			HTTPTimeout: httpTimeout,
		},
		Registry: RegistryConfig{
			Host:      strings.TrimRight(getEnv("REGISTRY_HOST", "https://api.opencorporates.com"), "/"),
			CacheSize: getEnvAsInt("ENRICHMENT_CACHE_SIZE", 512),
			Timeout:   httpTimeout,
		},
		Sync: SyncConfig{
			QueueSize: getEnvAsInt("SYNC_QUEUE_SIZE", 32),
		},
		WhatsApp: WhatsAppConfig{
			Enabled:    getEnvAsBool("WHATSAPP_ENABLED", false),
			DSN:        getEnv("WHATSAPP_DB_DSN", "file:whatsapp.db?_foreign_keys=on"),
			LogLevel:   getEnv("WHATSAPP_LOG_LEVEL", "INFO"),
			DeviceName: getEnv("WHATSAPP_DEVICE_NAME", "orgsync"),
			Recipient:  getEnv("WHATSAPP_RECIPIENT", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}

	if c.Repository.Path == "" || !strings.Contains(c.Repository.Path, "/") {
		return fmt.Errorf("repository path must look like owner/name, got %q", c.Repository.Path)
	}

	if c.Repository.Branch == "" {
		return fmt.Errorf("repository branch is required")
	}

	if c.Registry.CacheSize < 1 {
		return fmt.Errorf("invalid enrichment cache size: %d", c.Registry.CacheSize)
	}

	if c.Sync.QueueSize < 1 {
		return fmt.Errorf("invalid sync queue size: %d", c.Sync.QueueSize)
	}

	// Check for default/insecure API keys
	for _, key := range c.Security.APIKeys {
		if key == "default-api-key" || key == "api-key-123" || len(key) < 8 {
			return fmt.Errorf("insecure or default API key detected: '%s'. Please set secure API keys in environment variables", key)
		}
	}

	if c.WhatsApp.Enabled {
		if c.WhatsApp.DSN == "" {
			return fmt.Errorf("WhatsApp session DSN is required when notifications are enabled")
		}
		if !validation.IsValidJID(c.WhatsApp.Recipient) {
			return fmt.Errorf("invalid WhatsApp recipient JID: %q", c.WhatsApp.Recipient)
		}
	}

	return nil
}

// Address returns the server address in the format host:port
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Helper functions to get environment variables

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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
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

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	// Split by comma and trim spaces
	values := make([]string, 0)
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}

	return values
}
