package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Gemini     GeminiConfig
	Search     SearchConfig
	Cache      CacheConfig
	Logging    LoggingConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, takes precedence
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
}

// GeminiConfig holds the language-understanding oracle configuration
type GeminiConfig struct {
	APIKey         string
	APIBase        string
	FlashModel     string // intent parsing, summaries, general QA
	ProModel       string // SQL generation
	EmbeddingModel string
	EmbeddingDims  int
	Timeout        int // seconds, bounds every remote call
	MaxRetries     int
	RetryDelay     float64 // seconds, initial backoff
	BackoffFactor  float64
	Enabled        bool
}

// SearchConfig holds catalog and pipeline tuning
type SearchConfig struct {
	Table               string
	NamesTable          string
	ResultLimit         int     // LIMIT appended to every generated query
	SummaryLimit        int     // unique phones sent to the summarizer
	SimilarityThreshold float64 // minimum cosine similarity for a name match
	IndexBuildDelayMs   int     // pause between embedding calls during index build
}

// CacheConfig holds the optional Redis response cache configuration
type CacheConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Enabled  bool
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "mobile_catalog"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Gemini: GeminiConfig{
			APIKey:         getEnv("GEMINI_API_KEY", ""),
			APIBase:        getEnv("GEMINI_API_BASE", "https://generativelanguage.googleapis.com/v1beta"),
			FlashModel:     getEnv("GEMINI_FLASH_MODEL", "gemini-2.0-flash"),
			ProModel:       getEnv("GEMINI_PRO_MODEL", "gemini-2.5-pro"),
			EmbeddingModel: getEnv("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),
			EmbeddingDims:  getEnvAsInt("GEMINI_EMBEDDING_DIMENSIONS", 768),
			Timeout:        getEnvAsInt("GEMINI_TIMEOUT", 30),
			MaxRetries:     getEnvAsInt("GEMINI_MAX_RETRIES", 2),
			RetryDelay:     getEnvAsFloat("GEMINI_RETRY_DELAY", 2.0),
			BackoffFactor:  getEnvAsFloat("GEMINI_BACKOFF_FACTOR", 2.0),
			Enabled:        getEnv("GEMINI_API_KEY", "") != "",
		},
		Search: SearchConfig{
			Table:               getEnv("CATALOG_TABLE", "phones"),
			NamesTable:          getEnv("NAMES_TABLE", "phone_names"),
			ResultLimit:         getEnvAsInt("SEARCH_RESULT_LIMIT", 5),
			SummaryLimit:        getEnvAsInt("SEARCH_SUMMARY_LIMIT", 4),
			SimilarityThreshold: getEnvAsFloat("SEARCH_SIMILARITY_THRESHOLD", 0.4),
			IndexBuildDelayMs:   getEnvAsInt("INDEX_BUILD_DELAY_MS", 200),
		},
		Cache: CacheConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			TTL:      time.Duration(getEnvAsInt("CACHE_TTL_SECONDS", 300)) * time.Second,
			Enabled:  getEnv("REDIS_ADDR", "") != "",
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}
