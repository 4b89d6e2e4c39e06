package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string        `mapstructure:"APP_PORT"`
	Env             string        `mapstructure:"APP_ENV"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	DatabaseURL        string        `mapstructure:"DATABASE_URL"`
	MaxOpenConns       int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns       int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	SlowQueryThreshold time.Duration `mapstructure:"DB_SLOW_QUERY_THRESHOLD"`
	AutoMigrate        bool          `mapstructure:"DB_AUTO_MIGRATE"`
}

// Load reads the environment, falling back to an optional .env file in the
// working directory.
func Load() (Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()

	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_SLOW_QUERY_THRESHOLD", "1s")
	v.SetDefault("DB_AUTO_MIGRATE", true)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL required")
	}
	if cfg.MaxOpenConns < 1 {
		return Config{}, fmt.Errorf("DB_MAX_OPEN_CONNS must be positive, got %d", cfg.MaxOpenConns)
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}
