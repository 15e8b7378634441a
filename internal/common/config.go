package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	OCR      OCRConfig      `yaml:"ocr"`
	LLM      LLMConfig      `yaml:"llm"`
	Cache    CacheConfig    `yaml:"cache"`
	History  HistoryConfig  `yaml:"history"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// OCRConfig holds recognition-engine configuration
type OCRConfig struct {
	Engine        string        `yaml:"engine"`    // "tesseract" (exec) | "gosseract" (in-process)
	Tesseract     string        `yaml:"tesseract"` // binary name or absolute path
	Language      string        `yaml:"language"`  // default "eng"
	TessdataDir   string        `yaml:"tessdata_dir"`
	PSM           int           `yaml:"psm"` // e.g., 6 is good for uniform block of text
	OEM           int           `yaml:"oem"` // 1 = LSTM; leave 0 to use default
	Timeout       time.Duration `yaml:"timeout"`
	MaxInputBytes int           `yaml:"max_input_bytes"`
}

// LLMConfig holds structured-extractor configuration
type LLMConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	APIKeyName  string        `yaml:"api_key_name"` // secret name resolved via the credential store
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxTextLen  int           `yaml:"max_text_len"`
}

// CacheConfig holds recognition-result cache configuration
type CacheConfig struct {
	Backend   string        `yaml:"backend"` // "memory" | "redis"
	RedisAddr string        `yaml:"redis_addr"`
	MaxAge    time.Duration `yaml:"max_age"`
}

// HistoryConfig holds recognition-history store configuration
type HistoryConfig struct {
	Driver string `yaml:"driver"` // "sqlite" | "postgres"
	DSN    string `yaml:"dsn"`
}

// PipelineConfig holds orchestrator thresholds
type PipelineConfig struct {
	ConfidenceThreshold float32 `yaml:"confidence_threshold"` // low-confidence warning cutoff
	LocalMinConfidence  float32 `yaml:"local_min_confidence"` // local fallback acceptance
	BatchConcurrency    int     `yaml:"batch_concurrency"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		OCR: OCRConfig{
			Engine:        getEnv("OCR_ENGINE", "tesseract"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			Language:      getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			PSM:           getEnvAsInt("TESSERACT_PSM", 0),
			OEM:           getEnvAsInt("TESSERACT_OEM", 0),
			Timeout:       getEnvAsDuration("OCR_TIMEOUT", 30*time.Second),
			MaxInputBytes: getEnvAsInt("OCR_MAX_INPUT_BYTES", 20<<20),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKeyName:  getEnv("OPENAI_API_KEY_NAME", "OPENAI_API_KEY"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 30*time.Second),
			MaxTextLen:  getEnvAsInt("LLM_MAX_TEXT_LEN", 10000),
		},
		Cache: CacheConfig{
			Backend:   getEnv("CACHE_BACKEND", "memory"),
			RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
			MaxAge:    getEnvAsDuration("CACHE_MAX_AGE", 7*24*time.Hour),
		},
		History: HistoryConfig{
			Driver: getEnv("HISTORY_DRIVER", "sqlite"),
			DSN:    getEnv("HISTORY_DSN", "./cardsnap.db"),
		},
		Pipeline: PipelineConfig{
			ConfidenceThreshold: getEnvAsFloat32("CONFIDENCE_THRESHOLD", 0.7),
			LocalMinConfidence:  getEnvAsFloat32("LOCAL_MIN_CONFIDENCE", 0.3),
			BatchConcurrency:    getEnvAsInt("BATCH_CONCURRENCY", 3),
		},
	}
}

// ApplyFile overlays values from a YAML config file onto the config.
// Missing file is not an error; a malformed file is.
func (c *Config) ApplyFile(path string) error {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
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

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
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

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.OCR.Engine {
	case "tesseract", "gosseract":
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown OCR engine %q", c.OCR.Engine), ErrInvalidInput)
	}
	if c.Pipeline.ConfidenceThreshold < 0 || c.Pipeline.ConfidenceThreshold > 1 {
		return NewAppError("CONFIG_ERROR", "CONFIDENCE_THRESHOLD must be within [0,1]", ErrInvalidInput)
	}
	if c.Pipeline.BatchConcurrency < 1 {
		return NewAppError("CONFIG_ERROR", "BATCH_CONCURRENCY must be >= 1", ErrInvalidInput)
	}
	if c.History.Driver != "sqlite" && c.History.Driver != "postgres" && c.History.Driver != "" {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown history driver %q", c.History.Driver), ErrInvalidInput)
	}
	return nil
}
