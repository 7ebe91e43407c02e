// Package config loads config.yaml for the server and the trainer.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"heartrisk/logging"
)

type Config struct {
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
		MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	} `yaml:"http"`
	Log      logging.Config `yaml:"log"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	ML struct {
		ModelType string `yaml:"model_type"`
		ModelPath string `yaml:"model_path"`
		CacheSize int    `yaml:"cache_size"`
		Watch     bool   `yaml:"watch"`
		Training  struct {
			DatasetPath string  `yaml:"dataset_path"`
			TestRatio   float64 `yaml:"test_ratio"`
			Seed        int64   `yaml:"seed"`
		} `yaml:"training"`
	} `yaml:"ml"`
}

// Resolve returns path if it exists, else the same file one directory up so
// binaries started from cmd/ find the repository config.
func Resolve(path string) string {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !filepath.IsAbs(path) {
		parent := filepath.Join("..", path)
		if _, err := os.Stat(parent); err == nil {
			return parent
		}
	}
	return path
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}
	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	config.applyDefaults()
	return &config, nil
}

// FromEnv builds a config without a file: defaults plus .env and the
// HEARTRISK_* overrides.
func FromEnv() (*Config, error) {
	_ = godotenv.Load()

	var config Config
	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	config.applyDefaults()
	return &config, nil
}

func Default() *Config {
	var config Config
	config.applyDefaults()
	return &config
}

func (c *Config) applyEnv() error {
	if port := os.Getenv("HEARTRISK_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("HEARTRISK_PORT: %w", err)
		}
		c.Http.Port = p
	}
	if modelPath := os.Getenv("HEARTRISK_MODEL_PATH"); modelPath != "" {
		c.ML.ModelPath = modelPath
	}
	c.Log.File = os.ExpandEnv(c.Log.File)
	c.Database.Path = os.ExpandEnv(c.Database.Path)
	c.ML.ModelPath = os.ExpandEnv(c.ML.ModelPath)
	c.ML.Training.DatasetPath = os.ExpandEnv(c.ML.Training.DatasetPath)
	return nil
}

func (c *Config) applyDefaults() {
	if c.Http.Port == 0 {
		c.Http.Port = 8080
	}
	if c.Http.Timeout == 0 {
		c.Http.Timeout = 30 * time.Second
	}
	if len(c.Http.AllowedOrigins) == 0 {
		c.Http.AllowedOrigins = []string{"*"}
	}
	if c.Http.MaxBodyBytes == 0 {
		c.Http.MaxBodyBytes = 1 << 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 50
	}
	if c.ML.ModelType == "" {
		c.ML.ModelType = "linear_regression"
	}
	if c.ML.ModelPath == "" {
		c.ML.ModelPath = "./models/heart_failure.model"
	}
	if c.ML.Training.DatasetPath == "" {
		c.ML.Training.DatasetPath = "./data/heart_failure_clinical_records_dataset.csv"
	}
	if c.ML.Training.TestRatio == 0 {
		c.ML.Training.TestRatio = 0.2
	}
	if c.ML.Training.Seed == 0 {
		c.ML.Training.Seed = 42
	}
}
