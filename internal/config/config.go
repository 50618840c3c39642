// Package config loads application configuration from config.yaml and
// DKP_*-prefixed environment variables, and bootstraps the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Sheet       SheetConfig       `yaml:"sheet" mapstructure:"sheet"`
	Schema      SchemaConfig      `yaml:"schema" mapstructure:"schema"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard" mapstructure:"leaderboard"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// SheetConfig locates the spreadsheet snapshot source.
type SheetConfig struct {
	// Source is a local .csv/.xlsx path or a published CSV-export URL.
	Source string `yaml:"source" mapstructure:"source"`
	// Worksheet selects the XLSX worksheet; first sheet when empty.
	Worksheet    string  `yaml:"worksheet" mapstructure:"worksheet"`
	CacheTTLSecs int     `yaml:"cache_ttl_secs" mapstructure:"cache_ttl_secs"`
	RatePerSec   float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent    string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// SchemaConfig configures header inference.
type SchemaConfig struct {
	// RulesFile optionally replaces the built-in column matching policy.
	RulesFile string `yaml:"rules_file" mapstructure:"rules_file"`
}

// LeaderboardConfig configures ranking output.
type LeaderboardConfig struct {
	TopN int `yaml:"top_n" mapstructure:"top_n"`
}

// StoreConfig configures the query-audit backend. An empty DSN disables
// auditing entirely.
type StoreConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DKP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("sheet.source", "")
	v.SetDefault("sheet.worksheet", "Discord-Bot")
	v.SetDefault("sheet.cache_ttl_secs", 30)
	v.SetDefault("sheet.rate_per_sec", 1.0)
	v.SetDefault("sheet.timeout_secs", 30)
	v.SetDefault("sheet.user_agent", "dkp-stats-bot")
	v.SetDefault("schema.rules_file", "")
	v.SetDefault("leaderboard.top_n", 10)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
