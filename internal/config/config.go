package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines daemon configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	DB     DBConfig     `yaml:"db"`
	Remote RemoteConfig `yaml:"remote"`
	Jobs   JobsConfig   `yaml:"jobs"`
	Auth   AuthConfig   `yaml:"auth"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

// RemoteConfig points at the shared server-side store. An empty DSN means
// fully offline operation: everything works locally and sync waits.
type RemoteConfig struct {
	PostgresDSN string `yaml:"postgres_dsn"`
}

type JobsConfig struct {
	SyncInterval   Duration `yaml:"sync_interval"`
	ReplanInterval Duration `yaml:"replan_interval"`
}

// Duration accepts "15m" style values in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// AuthConfig maps bearer tokens to user IDs.
type AuthConfig struct {
	Tokens map[string]string `yaml:"tokens"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8484,
		},
		DB: DBConfig{
			Path: "cadence.db",
		},
		Jobs: JobsConfig{
			SyncInterval:   Duration(15 * time.Minute),
			ReplanInterval: Duration(24 * time.Hour),
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("CADENCE_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("CADENCE_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("CADENCE_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CADENCE_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("CADENCE_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if dsn := os.Getenv("CADENCE_REMOTE_DSN"); dsn != "" {
		cfg.Remote.PostgresDSN = dsn
	}
	if level := os.Getenv("CADENCE_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
