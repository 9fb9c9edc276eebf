package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/offerscan/constants"
)

// Config holds all application configuration
type Config struct {
	Render  RenderConfig
	OCR     OCRConfig
	Export  ExportConfig
	Journal JournalConfig
	Ingest  IngestConfig
	Log     LogConfig
}

// RenderConfig holds page rendering configuration
type RenderConfig struct {
	Scale    float64
	Pdftoppm string
	Timeout  time.Duration
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Engine      string // "cli" | "gosseract"
	Tesseract   string
	Language    string
	TessdataDir string
	Timeout     time.Duration
}

// ExportConfig holds spreadsheet export configuration
type ExportConfig struct {
	Dir string
}

// JournalConfig holds the extraction journal database configuration
type JournalConfig struct {
	DSN string
}

// IngestConfig holds upload loading configuration
type IngestConfig struct {
	Workers int
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Render: RenderConfig{
			Scale:    getEnvAsFloat64("RENDER_SCALE", constants.DefaultRenderScale),
			Pdftoppm: getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Timeout:  getEnvAsDuration("RENDER_TIMEOUT", 0),
		},
		OCR: OCRConfig{
			Engine:      getEnv("OCR_ENGINE", "cli"),
			Tesseract:   getEnv("TESSERACT_BIN", "tesseract"),
			Language:    getEnv("OCR_LANG", constants.DefaultOCRLanguage),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			Timeout:     getEnvAsDuration("OCR_TIMEOUT", 0),
		},
		Export: ExportConfig{
			Dir: getEnv("EXPORT_DIR", "."),
		},
		Journal: JournalConfig{
			DSN: getEnv("JOBS_DSN", ":memory:"),
		},
		Ingest: IngestConfig{
			Workers: getEnvAsInt("LOAD_WORKERS", 4),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
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

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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
	if c.Render.Scale <= 0 {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("RENDER_SCALE must be positive, got %v", c.Render.Scale), ErrInvalidInput)
	}
	switch strings.ToLower(c.OCR.Engine) {
	case "cli", "gosseract":
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("OCR_ENGINE must be cli or gosseract, got %q", c.OCR.Engine), ErrInvalidInput)
	}
	if c.OCR.Language == "" {
		return NewAppError("CONFIG_ERROR", "OCR_LANG is required", ErrInvalidInput)
	}
	if c.Export.Dir == "" {
		return NewAppError("CONFIG_ERROR", "EXPORT_DIR is required", ErrInvalidInput)
	}
	if c.Ingest.Workers <= 0 {
		return NewAppError("CONFIG_ERROR", "LOAD_WORKERS must be positive", ErrInvalidInput)
	}
	return nil
}
