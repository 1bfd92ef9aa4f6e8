// Package config loads the tool's settings from the environment and an
// optional .env file in the repository root.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// envFile is the dotenv file read from the repository root.
const envFile = ".env"

const (
	DefaultModel    = "sonar"
	DefaultTimeout  = 2 * time.Minute
	DefaultLogCount = 10
)

// Config holds everything needed to talk to the model.
type Config struct {
	APIKey   string        `mapstructure:"openai_api_key"`
	BaseURL  string        `mapstructure:"openai_uri"`
	Model    string        `mapstructure:"openai_model"`
	Timeout  time.Duration `mapstructure:"autocommit_timeout"`
	LogCount int           `mapstructure:"autocommit_log_count"`
}

// keys lists every setting so that AutomaticEnv values reach Unmarshal.
var keys = []string{
	"openai_api_key",
	"openai_uri",
	"openai_model",
	"autocommit_timeout",
	"autocommit_log_count",
}

// MissingError lists required variables that were not set.
type MissingError struct {
	Vars []string
}

func (e *MissingError) Error() string {
	return "missing required environment variable(s): " + strings.Join(e.Vars, ", ")
}

// Load reads the configuration for the repository at root. The process
// environment wins over root/.env, which wins over defaults. A missing .env
// is not an error.
func Load(root string) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetConfigFile(filepath.Join(root, envFile))
	v.SetConfigType("dotenv")
	v.AutomaticEnv()
	for _, k := range keys {
		if err := v.BindEnv(k, strings.ToUpper(k)); err != nil {
			return nil, fmt.Errorf("bind %s: %w", k, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("openai_model", DefaultModel)
	v.SetDefault("autocommit_timeout", DefaultTimeout)
	v.SetDefault("autocommit_log_count", DefaultLogCount)
}

// Validate reports missing required variables and rejects non-positive
// numeric settings.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.APIKey) == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if len(missing) > 0 {
		return &MissingError{Vars: missing}
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("AUTOCOMMIT_TIMEOUT must be positive, got %s", c.Timeout)
	}
	if c.LogCount <= 0 {
		return fmt.Errorf("AUTOCOMMIT_LOG_COUNT must be positive, got %d", c.LogCount)
	}
	return nil
}
