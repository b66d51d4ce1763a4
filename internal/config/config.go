/**
 * Configuration for the recipe digitizer
 *
 * Loads configuration from environment variables, optionally seeded from .env
 */

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// OCR backend identifiers
const (
	BackendTextract  = "textract"
	BackendKraken    = "kraken"
	BackendTesseract = "tesseract"
)

// Config holds digitizer configuration
type Config struct {
	// Source document and output location
	SourcePDF string
	OutputDir string

	// OCR backend selection: textract, kraken or tesseract
	OCRBackend string

	// AWS Textract configuration
	AWSRegion string

	// Kraken configuration
	KrakenPath              string
	KrakenSegmentationModel string
	KrakenRecognitionModel  string

	// Tesseract configuration
	TesseractLanguage string

	// Rasterization scale against the 72-unit PDF base (3 -> 216 DPI)
	RasterScale float64

	// Words and pages below this confidence are flagged for review
	ConfidenceThreshold float64

	// Confidence tier bounds for the statistics summary
	TierHigh float64
	TierLow  float64

	// Review document formatting
	ReviewImageWidthMM float64
	ReviewFontFamily   string
	ReviewFontSize     float64
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		SourcePDF:               getEnvOrDefault("SOURCE_PDF", ""),
		OutputDir:               getEnvOrDefault("OUTPUT_DIR", ""),
		OCRBackend:              getEnvOrDefault("OCR_BACKEND", BackendTextract),
		AWSRegion:               getEnvOrDefault("AWS_REGION", "us-east-1"),
		KrakenPath:              getEnvOrDefault("KRAKEN_PATH", "kraken"),
		KrakenSegmentationModel: getEnvOrDefault("KRAKEN_SEGMENTATION_MODEL", "blla.mlmodel"),
		KrakenRecognitionModel:  getEnvOrDefault("KRAKEN_RECOGNITION_MODEL", "McCATMuS_nfd_nofix_V1.mlmodel"),
		TesseractLanguage:       getEnvOrDefault("TESSERACT_LANGUAGE", "eng"),
		RasterScale:             getEnvAsFloatOrDefault("RASTER_SCALE", 3),
		ConfidenceThreshold:     getEnvAsFloatOrDefault("CONFIDENCE_THRESHOLD", 80),
		TierHigh:                getEnvAsFloatOrDefault("TIER_HIGH", 85),
		TierLow:                 getEnvAsFloatOrDefault("TIER_LOW", 70),
		ReviewImageWidthMM:      getEnvAsFloatOrDefault("REVIEW_IMAGE_WIDTH_MM", 90),
		ReviewFontFamily:        getEnvOrDefault("REVIEW_FONT", "Helvetica"),
		ReviewFontSize:          getEnvAsFloatOrDefault("REVIEW_FONT_SIZE", 10),
	}

	// Output directory defaults to a sibling of the source document
	if cfg.OutputDir == "" && cfg.SourcePDF != "" {
		cfg.OutputDir = filepath.Join(filepath.Dir(cfg.SourcePDF), "ocr_output")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	switch c.OCRBackend {
	case BackendTextract, BackendKraken, BackendTesseract:
	default:
		return fmt.Errorf("OCR_BACKEND must be one of textract, kraken, tesseract, got %q", c.OCRBackend)
	}

	if c.RasterScale <= 0 || c.RasterScale > 8 {
		return fmt.Errorf("RASTER_SCALE must be between 0 and 8, got %v", c.RasterScale)
	}

	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 100 {
		return fmt.Errorf("CONFIDENCE_THRESHOLD must be between 0 and 100, got %v", c.ConfidenceThreshold)
	}

	if c.TierLow < 0 || c.TierHigh > 100 || c.TierLow >= c.TierHigh {
		return fmt.Errorf("confidence tiers must satisfy 0 <= TIER_LOW < TIER_HIGH <= 100, got low=%v high=%v",
			c.TierLow, c.TierHigh)
	}

	if c.ReviewImageWidthMM <= 0 || c.ReviewImageWidthMM > 180 {
		return fmt.Errorf("REVIEW_IMAGE_WIDTH_MM must be between 0 and 180, got %v", c.ReviewImageWidthMM)
	}

	if c.ReviewFontSize < 6 || c.ReviewFontSize > 24 {
		return fmt.Errorf("REVIEW_FONT_SIZE must be between 6 and 24, got %v", c.ReviewFontSize)
	}

	return nil
}

// SourceStem returns the source document name without directory or extension
func (c *Config) SourceStem() string {
	base := filepath.Base(c.SourcePDF)
	return base[:len(base)-len(filepath.Ext(base))]
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsFloatOrDefault gets environment variable as float64 or returns default
func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}
