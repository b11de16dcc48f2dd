package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const envPrefix = "SUBSYNC"

type Config struct {
	// output name is OutputPrefix + input base name
	OutputPrefix string `mapstructure:"output_prefix"`

	// ratios further than this from 1.0 are reported as suspicious
	MaxRatioDeviation float64 `mapstructure:"max_ratio_deviation"`

	// parallel jobs for batch runs
	Concurrency int `mapstructure:"concurrency"`

	Server ServerConfig `mapstructure:"server"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	MaxBodyBytes   int64    `mapstructure:"max_body_bytes"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SetDefaults registers every key so environment variables resolve even
// without a config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("output_prefix", "new-")
	v.SetDefault("max_ratio_deviation", 0.1)
	v.SetDefault("concurrency", 4)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_body_bytes", 10<<20)
	v.SetDefault("server.allowed_origins", []string{})
}

// Load resolves configuration from defaults, the config file, SUBSYNC_*
// environment variables and any flags already bound to v, in increasing order
// of precedence. An explicit path must exist; the default location is
// optional.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "subsync"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.MaxRatioDeviation < 0 {
		return fmt.Errorf(
			"max_ratio_deviation must not be negative, got %v",
			c.MaxRatioDeviation,
		)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf(
			"server.max_body_bytes must be positive, got %d",
			c.Server.MaxBodyBytes,
		)
	}
	if strings.ContainsAny(c.OutputPrefix, `/\`) {
		return fmt.Errorf("output_prefix %q must not contain a path separator", c.OutputPrefix)
	}
	return nil
}
