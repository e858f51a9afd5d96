// Package config loads the gymdex configuration from config.yaml and
// GYMDEX_-prefixed environment variables.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	API     APIConfig     `yaml:"api" mapstructure:"api"`
	Admin   AdminConfig   `yaml:"admin" mapstructure:"admin"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Search  SearchConfig  `yaml:"search" mapstructure:"search"`
	Cluster ClusterConfig `yaml:"cluster" mapstructure:"cluster"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// APIConfig configures the backend client.
type APIConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// AdminConfig holds the bearer token for candidate review endpoints.
type AdminConfig struct {
	Token string `yaml:"token" mapstructure:"token"`
}

// StorageConfig configures the local device database.
type StorageConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// SearchConfig configures session behavior.
type SearchConfig struct {
	DebounceMs        int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
	SelectionWindowMs int `yaml:"selection_window_ms" mapstructure:"selection_window_ms"`
}

// ClusterConfig configures the marker clustering engine.
type ClusterConfig struct {
	MinPoints   int `yaml:"min_points" mapstructure:"min_points"`
	PixelRadius int `yaml:"pixel_radius" mapstructure:"pixel_radius"`
	MaxZoom     int `yaml:"max_zoom" mapstructure:"max_zoom"`
}

// ServerConfig configures the session gateway.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Debounce returns the URL-sync debounce as a duration.
func (c SearchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// SelectionWindow returns the selection suppression window as a duration.
func (c SearchConfig) SelectionWindow() time.Duration {
	return time.Duration(c.SelectionWindowMs) * time.Millisecond
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GYMDEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("api.base_url", "https://api.trainmap.jp/v1")
	v.SetDefault("api.timeout_secs", 30)
	v.SetDefault("api.rate_limit", 10.0)
	v.SetDefault("api.max_retries", 4)
	v.SetDefault("storage.path", "gymdex.db")
	v.SetDefault("search.debounce_ms", 300)
	v.SetDefault("search.selection_window_ms", 750)
	v.SetDefault("cluster.min_points", 50)
	v.SetDefault("cluster.pixel_radius", 60)
	v.SetDefault("cluster.max_zoom", 19)
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
