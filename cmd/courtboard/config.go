package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/courtboard/courtboard/internal/store"
	"github.com/courtboard/courtboard/internal/syncer"
)

// Config holds the full process configuration. Values come from the yaml
// file when present; environment variables override individual fields.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Store struct {
		URL               string `yaml:"url"`
		Bucket            string `yaml:"bucket"`
		Key               string `yaml:"key"`
		Memory            bool   `yaml:"memory"` // in-process store, single-client demo
		SampleIntervalSec int    `yaml:"sample_interval_sec"`
	} `yaml:"store"`
	LogLevel string `yaml:"log_level"`
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = "8080"
	natsDefaults := store.DefaultNATSConfig()
	cfg.Store.URL = natsDefaults.URL
	cfg.Store.Bucket = natsDefaults.Bucket
	cfg.Store.Key = syncer.DefaultKey
	cfg.Store.SampleIntervalSec = int(natsDefaults.SampleInterval / time.Second)
	cfg.LogLevel = "info"
	return cfg
}

// loadConfig reads the yaml file at path and applies environment overrides.
// A missing file is not an error; defaults apply.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Store.URL = getEnv("NATS_URL", cfg.Store.URL)
	cfg.Store.Bucket = getEnv("STORE_BUCKET", cfg.Store.Bucket)
	cfg.Store.Key = getEnv("STORE_KEY", cfg.Store.Key)
	cfg.Store.SampleIntervalSec = getEnvAsInt("CLOCK_SAMPLE_INTERVAL_SEC", cfg.Store.SampleIntervalSec)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	return cfg, nil
}

// natsConfig maps the store section onto the JetStream store configuration.
func (c *Config) natsConfig() store.NATSConfig {
	natsCfg := store.DefaultNATSConfig()
	natsCfg.URL = c.Store.URL
	natsCfg.Bucket = c.Store.Bucket
	if c.Store.SampleIntervalSec > 0 {
		natsCfg.SampleInterval = time.Duration(c.Store.SampleIntervalSec) * time.Second
	}
	return natsCfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
