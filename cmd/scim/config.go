package main

import (
	"strings"

	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"

	"github.com/brunoga/scim"
	"github.com/brunoga/scim/internal/errors"
	"github.com/brunoga/scim/internal/log"
)

const envPrefix = "SCIM"

// Configuration keys, as used in config files. Environment variables carry the SCIM_ prefix and upper case.
const (
	keyLogLevel  = "log_level"
	keyLogFormat = "log_format"
	keyMaxDepth  = "max_depth"
	keyPretty    = "pretty"
)

// Config holds the settings shared by every command.
type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	MaxDepth  int    `mapstructure:"max_depth"`
	Pretty    bool   `mapstructure:"pretty"`
}

// flagKeys maps global flags to the configuration keys they override.
var flagKeys = map[string]string{
	flagLogLevel:  keyLogLevel,
	flagLogFormat: keyLogFormat,
	flagMaxDepth:  keyMaxDepth,
	flagPretty:    keyPretty,
}

// LoadConfig merges, from lowest to highest precedence, the defaults, the config file, the SCIM_* environment
// and the flags explicitly set on the command line.
func LoadConfig(c *cli.Context) (Config, error) {
	v := viper.New()
	v.SetDefault(keyLogLevel, "warn")
	v.SetDefault(keyLogFormat, log.FormatText)
	v.SetDefault(keyMaxDepth, scim.DefaultMaxDepth)
	v.SetDefault(keyPretty, false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file := c.String(flagConfig); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Errorf("reading config file %s: %w", file, err)
		}
	} else {
		v.SetConfigName("scim")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/scim")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, errors.Errorf("reading config file: %w", err)
			}
		}
	}

	for flag, key := range flagKeys {
		if c.IsSet(flag) {
			v.Set(key, c.Value(flag))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Errorf("decoding configuration: %w", err)
	}
	if cfg.MaxDepth < 1 {
		return Config{}, errors.Errorf("max depth must be at least 1, got %d", cfg.MaxDepth)
	}

	return cfg, nil
}

// ParseOptions returns the parser options the configuration asks for.
func (cfg Config) ParseOptions() []scim.Option {
	return []scim.Option{scim.WithMaxDepth(cfg.MaxDepth)}
}
