// Package config loads loadwatch configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. LOADWATCH_REDIS_ADDR.
const EnvPrefix = "LOADWATCH"

// Config captures all loadwatch configuration knobs.
type Config struct {
	Redis   RedisConfig   `mapstructure:"redis"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
	Demo    DemoConfig    `mapstructure:"demo"`
}

// RedisConfig points at the job store.
type RedisConfig struct {
	Addr                 string        `mapstructure:"addr"`
	KeyPrefix            string        `mapstructure:"key_prefix"`
	PollInterval         time.Duration `mapstructure:"poll_interval"`
	Timeout              time.Duration `mapstructure:"timeout"`
	KeyTTL               time.Duration `mapstructure:"key_ttl"`
	MaxConsecutiveErrors int           `mapstructure:"max_consecutive_errors"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Addr      string `mapstructure:"addr"`
	Namespace string `mapstructure:"namespace"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// DemoConfig scripts the paced demo load.
type DemoConfig struct {
	Values   []float64 `mapstructure:"values"`
	Schedule string    `mapstructure:"schedule"`
	Result   string    `mapstructure:"result"`
}

// New returns a Viper instance with defaults and environment overrides set.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load builds a Config from v, reading path first when it is set.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.key_prefix", "loadflow:job")
	v.SetDefault("redis.poll_interval", 100*time.Millisecond)
	v.SetDefault("redis.timeout", 500*time.Millisecond)
	v.SetDefault("redis.key_ttl", time.Hour)
	v.SetDefault("redis.max_consecutive_errors", 3)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.namespace", "loadflow")
	v.SetDefault("logging.development", false)
	v.SetDefault("demo.values", []float64{0, 0.5, 1})
	v.SetDefault("demo.schedule", "@every 200ms")
	v.SetDefault("demo.result", "success")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Redis.PollInterval <= 0 {
		return fmt.Errorf("redis.poll_interval must be > 0")
	}
	if c.Redis.Timeout <= 0 {
		return fmt.Errorf("redis.timeout must be > 0")
	}
	if c.Redis.MaxConsecutiveErrors <= 0 {
		return fmt.Errorf("redis.max_consecutive_errors must be > 0")
	}
	if c.Metrics.Namespace == "" {
		return fmt.Errorf("metrics.namespace must be set")
	}
	if c.Demo.Schedule == "" {
		return fmt.Errorf("demo.schedule must be set")
	}
	return nil
}
