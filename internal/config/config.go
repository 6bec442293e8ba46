package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/ricirt/motor-health-api/internal/model"
)

// Config holds all runtime configuration. Values come from an optional YAML
// file named by CONFIG_FILE, then environment variables, which always win.
// Every field has a default, so an empty environment is a valid setup.
type Config struct {
	// Server
	HTTPPort        string        `yaml:"http_port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`

	// Model artifacts
	ModelType       string `yaml:"model_type"`
	ModelPath       string `yaml:"model_path"`
	EncoderPath     string `yaml:"encoder_path"`
	ONNXLibraryPath string `yaml:"onnx_library_path"`
	ONNXInputName   string `yaml:"onnx_input_name"`
	ONNXOutputName  string `yaml:"onnx_output_name"`

	// Per-row prediction memoization; 0 disables it.
	PredictionCacheSize int `yaml:"prediction_cache_size"`

	// Prometheus admin listener; empty disables it.
	MetricsAddr string `yaml:"metrics_addr"`

	// Logging
	LogLevel      string `yaml:"log_level"`
	LogFile       string `yaml:"log_file"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups"`
	LogMaxAgeDays int    `yaml:"log_max_age_days"`
}

func defaults() *Config {
	return &Config{
		HTTPPort:        "5000",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		MaxBodyBytes:    1 << 20,

		ModelType:   model.TypeForest,
		ModelPath:   "motor_health_model.json",
		EncoderPath: "motor_health_label_encoder.json",

		MetricsAddr: ":9090",

		LogLevel:      "info",
		LogMaxSizeMB:  100,
		LogMaxBackups: 3,
		LogMaxAgeDays: 28,
	}
}

func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.HTTPPort = getEnv("HTTP_PORT", cfg.HTTPPort)
	cfg.ReadTimeout = getDuration("READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = getDuration("WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.ShutdownTimeout = getDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.MaxBodyBytes = int64(getInt("MAX_BODY_BYTES", int(cfg.MaxBodyBytes)))

	cfg.ModelType = getEnv("MODEL_TYPE", cfg.ModelType)
	cfg.ModelPath = getEnv("MODEL_PATH", cfg.ModelPath)
	cfg.EncoderPath = getEnv("ENCODER_PATH", cfg.EncoderPath)
	cfg.ONNXLibraryPath = getEnv("ONNX_LIBRARY_PATH", cfg.ONNXLibraryPath)
	cfg.ONNXInputName = getEnv("ONNX_INPUT_NAME", cfg.ONNXInputName)
	cfg.ONNXOutputName = getEnv("ONNX_OUTPUT_NAME", cfg.ONNXOutputName)

	cfg.PredictionCacheSize = getInt("PREDICTION_CACHE_SIZE", cfg.PredictionCacheSize)

	// METRICS_ADDR may be set to an empty string on purpose.
	if v, ok := os.LookupEnv("METRICS_ADDR"); ok {
		cfg.MetricsAddr = v
	}

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)
	cfg.LogMaxSizeMB = getInt("LOG_MAX_SIZE_MB", cfg.LogMaxSizeMB)
	cfg.LogMaxBackups = getInt("LOG_MAX_BACKUPS", cfg.LogMaxBackups)
	cfg.LogMaxAgeDays = getInt("LOG_MAX_AGE_DAYS", cfg.LogMaxAgeDays)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.ModelType {
	case model.TypeForest, model.TypeONNX:
	default:
		return fmt.Errorf("MODEL_TYPE must be %q or %q, got %q", model.TypeForest, model.TypeONNX, c.ModelType)
	}
	if c.ModelPath == "" {
		return fmt.Errorf("MODEL_PATH is required")
	}
	if c.EncoderPath == "" {
		return fmt.Errorf("ENCODER_PATH is required")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	if c.PredictionCacheSize < 0 {
		return fmt.Errorf("PREDICTION_CACHE_SIZE must not be negative")
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer file.Close()

	// An empty file decodes to io.EOF and leaves the defaults untouched.
	if err := yaml.NewDecoder(file).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
