package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full application configuration. It is loaded once in main
// and passed into constructors; nothing reads the environment or a global
// path at processing time.
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Workers struct {
		Count            int `yaml:"count"`
		ChunkConcurrency int `yaml:"chunk_concurrency"`
	} `yaml:"workers"`

	Storage struct {
		ChunkDir string `yaml:"chunk_dir"`
		TempDir  string `yaml:"temp_dir"`
		Database string `yaml:"database"`
	} `yaml:"storage"`

	Media struct {
		FFmpegPath string `yaml:"ffmpeg_path"`
	} `yaml:"media"`

	Whisper struct {
		Command string `yaml:"command"`
		Model   string `yaml:"model"`
	} `yaml:"whisper"`

	Analyzers struct {
		EmotionURL string        `yaml:"emotion_url"`
		PostureURL string        `yaml:"posture_url"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"analyzers"`

	Callbacks struct {
		StatusTimeout time.Duration `yaml:"status_timeout"`
		ResultTimeout time.Duration `yaml:"result_timeout"`
	} `yaml:"callbacks"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
}

// Load reads and validates a YAML config file.
func Load(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()

	if cfg.Storage.ChunkDir == "" {
		return nil, fmt.Errorf("storage.chunk_dir is required")
	}
	return &cfg, nil
}

// Default returns a configuration usable without a config file, mostly for
// tests and local runs.
func Default() *Config {
	var cfg Config
	cfg.Storage.ChunkDir = "chunks"
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	// One job at a time unless the deployment explicitly allows more.
	if c.Workers.Count <= 0 {
		c.Workers.Count = 1
	}
	if c.Workers.ChunkConcurrency <= 0 {
		c.Workers.ChunkConcurrency = 1
	}
	if c.Storage.TempDir == "" {
		c.Storage.TempDir = "temp"
	}
	if c.Media.FFmpegPath == "" {
		c.Media.FFmpegPath = "ffmpeg"
	}
	if c.Whisper.Command == "" {
		c.Whisper.Command = "python"
	}
	if c.Whisper.Model == "" {
		c.Whisper.Model = "medium"
	}
	if c.Analyzers.Timeout <= 0 {
		c.Analyzers.Timeout = 5 * time.Minute
	}
	if c.Callbacks.StatusTimeout <= 0 {
		c.Callbacks.StatusTimeout = 30 * time.Second
	}
	if c.Callbacks.ResultTimeout <= 0 {
		c.Callbacks.ResultTimeout = 120 * time.Second
	}
	if c.Cleanup.IntervalMinutes <= 0 {
		c.Cleanup.IntervalMinutes = 30
	}
	if c.Cleanup.MaxAgeHours <= 0 {
		c.Cleanup.MaxAgeHours = 6
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9090"
	}
}
