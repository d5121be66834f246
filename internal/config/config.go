package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	NodeEnv  string
	Port     string
	EncKey   string
	Database DatabaseConfig
	LLM      LLMConfig
	Session  SessionConfig
	Woo      WooConfig
	Debug    DebugConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Silent   bool
}

// LLMConfig holds the text-completion service settings
type LLMConfig struct {
	APIKey      string
	ChatModel   string
	IntentModel string
}

// SessionConfig selects where wizard state and chat history live
type SessionConfig struct {
	Backend   string // memory, redis, postgres
	RedisAddr string
	RedisDB   int
	TTL       time.Duration
}

// WooConfig holds the fallback store credentials used by the static tenant
type WooConfig struct {
	URL            string
	ConsumerKey    string
	ConsumerSecret string
	TenantName     string
}

// DebugConfig toggles debug payloads in replies
type DebugConfig struct {
	ChatBlocks bool
	WizardJSON bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		NodeEnv: getEnv("NODE_ENV", "development"),
		Port:    getEnv("PORT", "3210"),
		EncKey:  os.Getenv("ENC_KEY"),
		Database: DatabaseConfig{
			Enabled:  getEnv("DB_ENABLED", "false") == "true",
			Host:     getEnv("PG_HOST", "localhost"),
			Port:     getEnv("PG_PORT", "5432"),
			Username: getEnv("PG_USERNAME", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			Database: getEnv("PG_DATABASE", "wooassist"),
			Silent:   getEnv("DB_SILENT", "true") == "true",
		},
		LLM: LLMConfig{
			APIKey:      os.Getenv("GEMINI_API_KEY"),
			ChatModel:   getEnv("LLM_MODEL", "gemini-2.0-flash"),
			IntentModel: getEnv("INTENT_MODEL", "gemini-2.0-flash"),
		},
		Session: SessionConfig{
			Backend:   getEnv("SESSION_BACKEND", "memory"),
			RedisAddr: os.Getenv("REDIS_ADDR"),
			RedisDB:   getEnvInt("REDIS_DB", 0),
			TTL:       getEnvDuration("SESSION_TTL", 24*time.Hour),
		},
		Woo: WooConfig{
			URL:            os.Getenv("WOO_URL"),
			ConsumerKey:    os.Getenv("WOO_CK"),
			ConsumerSecret: os.Getenv("WOO_CS"),
			TenantName:     os.Getenv("WOO_TENANT_NAME"),
		},
		Debug: DebugConfig{
			ChatBlocks: getEnv("CHAT_DEBUG_BLOCKS", "false") == "true",
			WizardJSON: getEnv("WIZARD_DEBUG_JSON", "false") == "true",
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Session.Backend {
	case "memory":
	case "redis":
		if c.Session.RedisAddr == "" {
			return fmt.Errorf("SESSION_BACKEND=redis requires REDIS_ADDR")
		}
	case "postgres":
		if !c.Database.Enabled {
			return fmt.Errorf("SESSION_BACKEND=postgres requires DB_ENABLED=true")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.Session.Backend)
	}
	return nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
