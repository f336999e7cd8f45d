package redisjob

import (
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vnykmshr/loadflow/pkg/common/validation"
	"github.com/vnykmshr/loadflow/pkg/metrics"
)

// Hash fields written by a Reporter and read by a Loader.
const (
	fieldProgress = "progress"
	fieldState    = "state"
	fieldResult   = "result"
	fieldError    = "error"
	fieldCancel   = "cancel"
)

// Job states stored in the state field.
const (
	StateRunning = "running"
	StateDone    = "done"
	StateFailed  = "failed"
)

// Config holds configuration shared by reporters and loaders.
type Config struct {
	// Redis client for job state
	Redis redis.UniversalClient

	// KeyPrefix is prepended to the job id to form the hash key
	KeyPrefix string

	// PollInterval controls how often a Loader reads the job hash
	PollInterval time.Duration

	// RedisTimeout is the timeout for each Redis operation
	RedisTimeout time.Duration

	// KeyTTL is how long a job hash lives after its last write
	KeyTTL time.Duration

	// MaxConsecutiveErrors is how many failed reads in a row a Loader
	// tolerates before failing the load
	MaxConsecutiveErrors int

	// Metrics, if set, counts polls and poll failures
	Metrics *metrics.Registry

	// Logger for poll failures and cancel writes (defaults to a no-op logger)
	Logger *zap.Logger
}

// DefaultConfig returns a default configuration without a Redis client.
func DefaultConfig() Config {
	return Config{
		KeyPrefix:            "loadflow:job",
		PollInterval:         100 * time.Millisecond,
		RedisTimeout:         500 * time.Millisecond,
		KeyTTL:               time.Hour,
		MaxConsecutiveErrors: 3,
	}
}

func validateConfig(config Config, job string) error {
	if err := validation.ValidateNotNil("redisjob", "redis", config.Redis); err != nil {
		return err
	}
	if err := validation.ValidateNotEmpty("redisjob", "job", job); err != nil {
		return err
	}
	if config.PollInterval < 0 {
		return validation.ValidatePositiveDuration("redisjob", "poll_interval", config.PollInterval)
	}
	if config.MaxConsecutiveErrors < 0 {
		return validation.ValidatePositive("redisjob", "max_consecutive_errors", config.MaxConsecutiveErrors)
	}
	return nil
}

func applyConfigDefaults(config Config) Config {
	defaults := DefaultConfig()
	if config.KeyPrefix == "" {
		config.KeyPrefix = defaults.KeyPrefix
	}
	if config.PollInterval == 0 {
		config.PollInterval = defaults.PollInterval
	}
	if config.RedisTimeout <= 0 {
		config.RedisTimeout = defaults.RedisTimeout
	}
	if config.KeyTTL <= 0 {
		config.KeyTTL = defaults.KeyTTL
	}
	if config.MaxConsecutiveErrors == 0 {
		config.MaxConsecutiveErrors = defaults.MaxConsecutiveErrors
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return config
}

// Key returns the hash key for job under prefix.
func Key(prefix, job string) string {
	return prefix + ":" + job
}
