package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. PAYMENT_SERVER_PORT.
const EnvPrefix = "PAYMENT"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Currencies CurrenciesConfig `mapstructure:"currencies"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Events     EventsConfig     `mapstructure:"events"`
	ConfigPath string           `mapstructure:"-"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type CurrenciesConfig struct {
	Supported []string `mapstructure:"supported"`
}

// DatabaseConfig points at the PostgreSQL journal. An empty URL disables it.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig enables the read cache and the event stream. An empty address
// disables both.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type EventsConfig struct {
	Stream string `mapstructure:"stream"`
}

func NewDefault() *Config {
	return &Config{
		Server:     ServerConfig{Port: "8085"},
		Log:        LogConfig{Level: "info"},
		Currencies: CurrenciesConfig{Supported: []string{"NGN", "USD", "GBP", "GHS"}},
		Events:     EventsConfig{Stream: "payment.events"},
	}
}

// Load reads cfgFile when given, otherwise an optional config.yaml in the
// working directory, and applies PAYMENT_* environment overrides on top of
// the defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v, NewDefault())

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if cfgFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
	}

	cfg := NewDefault()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	return cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// appear in no config file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("currencies.supported", cfg.Currencies.Supported)
	v.SetDefault("database.url", cfg.Database.URL)
	v.SetDefault("redis.addr", cfg.Redis.Addr)
	v.SetDefault("redis.password", cfg.Redis.Password)
	v.SetDefault("redis.db", cfg.Redis.DB)
	v.SetDefault("events.stream", cfg.Events.Stream)
}
