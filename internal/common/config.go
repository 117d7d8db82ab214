package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration. It is loaded once at startup
// and passed explicitly into constructors; nothing reads ambient state.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Vision   VisionConfig
	LLM      LLMConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Pipeline PipelineConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr           string
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

// DatabaseConfig holds product store configuration. When DSN is empty the
// repository falls back to a local SQLite file at SQLitePath.
type DatabaseConfig struct {
	DSN             string
	SQLitePath      string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// VisionConfig holds text-recognition service configuration.
type VisionConfig struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
	// UseTesseract switches to the local tesseract recognizer (offline mode).
	UseTesseract  bool
	TesseractLang string
}

// LLMConfig holds text-generation service configuration.
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// RedisConfig holds submission-dedupe configuration. Addr empty disables dedupe.
type RedisConfig struct {
	Addr     string
	DedupTTL time.Duration
}

// StorageConfig holds image-archive configuration. Defaults to a local
// directory; Azure settings switch the archive to blob storage.
type StorageConfig struct {
	Dir            string
	AzureAccount   string
	AzureKey       string
	AzureContainer string
}

// PipelineConfig holds pipeline tuning knobs.
type PipelineConfig struct {
	Workers        int
	QueueSize      int
	ProcessTimeout time.Duration
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           getEnv("HTTP_ADDR", ":8080"),
			MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", 10<<20),
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 90*time.Second),
		},
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			SQLitePath:      getEnv("SQLITE_PATH", "./pricescout.db"),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Vision: VisionConfig{
			APIKey:        getEnv("VISION_API_KEY", ""),
			Endpoint:      getEnv("VISION_ENDPOINT", "https://vision.googleapis.com/v1/images:annotate"),
			Timeout:       getEnvAsDuration("VISION_TIMEOUT", 30*time.Second),
			UseTesseract:  getEnvAsBool("OCR_USE_TESSERACT", false),
			TesseractLang: getEnv("TESSERACT_LANG", "eng+sin+tam"),
		},
		LLM: LLMConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			DedupTTL: getEnvAsDuration("DEDUP_TTL", 24*time.Hour),
		},
		Storage: StorageConfig{
			Dir:            getEnv("ARCHIVE_DIR", "./archive"),
			AzureAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
			AzureKey:       getEnv("AZURE_STORAGE_KEY", ""),
			AzureContainer: getEnv("AZURE_STORAGE_CONTAINER", "scans"),
		},
		Pipeline: PipelineConfig{
			Workers:        getEnvAsInt("PIPELINE_WORKERS", 4),
			QueueSize:      getEnvAsInt("PIPELINE_QUEUE_SIZE", 256),
			ProcessTimeout: getEnvAsDuration("PIPELINE_TIMEOUT", 2*time.Minute),
		},
	}
}

// Validate checks the loaded configuration for required values.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if !c.Vision.UseTesseract && c.Vision.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "VISION_API_KEY is required unless OCR_USE_TESSERACT=true", ErrInvalidInput)
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
