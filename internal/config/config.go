// Package config loads rpg2nc settings from defaults, an optional config
// file and RPG_ prefixed environment variables, in increasing precedence.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Config holds the batch conversion settings.
type Config struct {
	InputDir         string            `mapstructure:"input_dir"`
	OutputDir        string            `mapstructure:"output_dir"`
	Recursive        bool              `mapstructure:"recursive"`
	IncludeLV0       bool              `mapstructure:"include_lv0"`
	BaseName         string            `mapstructure:"base_name"`
	Workers          int               `mapstructure:"workers"`
	NPointsMin       int               `mapstructure:"n_points_min"`
	FillValue        float32           `mapstructure:"fill_value"`
	DropTruncated    bool              `mapstructure:"drop_truncated"`
	MetricsFile      string            `mapstructure:"metrics_file"`
	LogLevel         string            `mapstructure:"log_level"`
	LogFormat        string            `mapstructure:"log_format"`
	GlobalAttributes map[string]string `mapstructure:"global_attributes"`
}

var (
	logLevels  = []string{"error", "warn", "info", "debug", "trace"}
	logFormats = []string{"text", "json"}
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("input_dir", ".")
	v.SetDefault("output_dir", ".")
	v.SetDefault("recursive", true)
	v.SetDefault("include_lv0", true)
	v.SetDefault("base_name", "")
	v.SetDefault("workers", 4)
	v.SetDefault("n_points_min", 4)
	v.SetDefault("fill_value", -999)
	v.SetDefault("drop_truncated", true)
	v.SetDefault("metrics_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("global_attributes", map[string]string{})
}

// New returns a viper instance with defaults and environment binding set up.
// When file is empty, rpg2nc.{yaml,toml,json} is searched in the working
// directory and /etc/rpgradar.
func New(file string) *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RPG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("rpg2nc")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/rpgradar")
	}
	return v
}

// Load reads the configuration. A missing config file is not an error unless
// file names one explicitly.
func Load(file string) (*Config, error) {
	return FromViper(New(file), file != "")
}

// FromViper reads the config file of v, if any, and decodes the settings.
// Command line flags bound to v take precedence over everything else.
func FromViper(v *viper.Viper, requireFile bool) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); requireFile || !notFound {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the value ranges.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return errors.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.NPointsMin < 1 {
		return errors.Errorf("n_points_min must be at least 1, got %d", c.NPointsMin)
	}
	if !lo.Contains(logLevels, strings.ToLower(c.LogLevel)) {
		return errors.Errorf("unknown log_level %q", c.LogLevel)
	}
	if !lo.Contains(logFormats, strings.ToLower(c.LogFormat)) {
		return errors.Errorf("unknown log_format %q", c.LogFormat)
	}
	return nil
}
