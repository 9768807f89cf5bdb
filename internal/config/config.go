package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port     string        `mapstructure:"port"`
	DBDSN    string        `mapstructure:"db_dsn"`
	LogLevel string        `mapstructure:"log_level"`
	JWTKey   string        `mapstructure:"jwt_key"`
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

// Load reads almira.yaml from the working directory if present, then lets
// ALMIRA_* environment variables override it.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("almira")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetDefault("port", "8080")
	// The DSN keeps writers serialized: immediate transactions plus a busy
	// timeout instead of application-level locks.
	v.SetDefault("db_dsn", "file:almira.db?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	v.SetDefault("log_level", "info")
	v.SetDefault("jwt_key", "dev-only-change-me")
	v.SetDefault("token_ttl", 24*time.Hour)

	v.SetEnvPrefix("almira")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
