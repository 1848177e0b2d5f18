package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all vintertour settings.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Mail    MailConfig    `yaml:"mail"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"` // served under /static/ when set
}

type StorageConfig struct {
	// Path of the SQLite file holding the match collection.
	DatabasePath string `yaml:"database_path"`
	// Keep matches in memory only; nothing survives a restart.
	Memory bool `yaml:"memory"`
}

type MailConfig struct {
	Recipient string `yaml:"recipient"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the settings used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Storage: StorageConfig{
			DatabasePath: filepath.Join("data", "vintertour.db"),
		},
		Mail: MailConfig{
			Recipient: "daniel@johansenweb.no",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from a .env file in the working directory when
// one exists. Variables already set in the environment win.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("VINTERTOUR_DB"); v != "" {
		c.Storage.DatabasePath = v
	}
	if v := os.Getenv("VINTERTOUR_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("VINTERTOUR_MAIL_TO"); v != "" {
		c.Mail.Recipient = v
	}
	if v := os.Getenv("VINTERTOUR_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the settings that have no usable zero value.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if !c.Storage.Memory && c.Storage.DatabasePath == "" {
		return errors.New("storage.database_path is required unless storage.memory is set")
	}
	if c.Mail.Recipient == "" {
		return errors.New("mail.recipient is required")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown logging.level %q", c.Logging.Level)
	}
	return nil
}
