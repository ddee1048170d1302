// Package config provides configuration loading and validation for the
// vaqtbot application. It reads defaults, an optional config.yaml, and
// BOT_* environment variables, then validates the result.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config defines the application configuration. Values can be set via
// environment variables prefixed with BOT_ (e.g., BOT_TELEGRAM_TOKEN)
// or through config.yaml.
type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Database DatabaseConfig `mapstructure:"database"`
	Prayer   PrayerConfig   `mapstructure:"prayer"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Log      LogConfig      `mapstructure:"log"`
}

// TelegramConfig holds the bot credentials and the admin user ID.
type TelegramConfig struct {
	Token   string `mapstructure:"token"    validate:"required"`
	AdminID int64  `mapstructure:"admin_id" validate:"required,gt=0"`
}

// DatabaseConfig holds SQLite connection settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// PrayerConfig holds settings for the external prayer-time source.
type PrayerConfig struct {
	BaseURL       string        `mapstructure:"base_url"       validate:"required,url"`
	Timeout       time.Duration `mapstructure:"timeout"        validate:"min=1s,max=1m"`
	DefaultRegion string        `mapstructure:"default_region" validate:"required"`
}

// NotifyConfig holds notification engine settings.
type NotifyConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// Load reads configuration from defaults, the config file at path (optional)
// and BOT_* environment variables, then validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, env vars and defaults still apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Keys without a default are invisible to AutomaticEnv during
	// Unmarshal, so required keys get an empty default.
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_id", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("database.path", "vaqtbot.db")

	v.SetDefault("prayer.base_url", "https://islomapi.uz")
	v.SetDefault("prayer.timeout", 10*time.Second)
	v.SetDefault("prayer.default_region", "Toshkent")

	v.SetDefault("notify.enabled", true)
}
