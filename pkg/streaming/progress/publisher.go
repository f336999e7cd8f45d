package progress

import (
	"go.uber.org/zap"

	"github.com/vnykmshr/loadflow/pkg/common/validation"
	"github.com/vnykmshr/loadflow/pkg/streaming/reactive"
)

// Config holds configuration options for a Publisher.
type Config struct {
	// Name identifies the publisher in logs and metrics.
	// Default: "progress"
	Name string

	// Logger receives subscription lifecycle events at debug level.
	// Default: no logging
	Logger *zap.Logger
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Name:   "progress",
		Logger: zap.NewNop(),
	}
}

// Publisher exposes a Loader as a reactive stream of LoadResult values.
//
// Every call to Subscribe creates an independent subscription that drives the
// loader once. The publisher itself holds no state besides the loader.
type Publisher[R any] struct {
	loader Loader[R]
	config Config
}

var _ reactive.Publisher[LoadResult[struct{}]] = (*Publisher[struct{}])(nil)

// New creates a Publisher for loader. It panics if loader is nil.
func New[R any](loader Loader[R]) *Publisher[R] {
	return NewWithConfig(loader, DefaultConfig())
}

// NewSafe creates a Publisher for loader, returning an error instead of
// panicking when loader is nil.
func NewSafe[R any](loader Loader[R]) (*Publisher[R], error) {
	return NewWithConfigSafe(loader, DefaultConfig())
}

// NewWithConfig creates a Publisher with the given configuration.
// It panics if loader is nil.
func NewWithConfig[R any](loader Loader[R], config Config) *Publisher[R] {
	p, err := NewWithConfigSafe(loader, config)
	if err != nil {
		panic(err)
	}
	return p
}

// NewWithConfigSafe creates a Publisher with the given configuration,
// returning an error instead of panicking when loader is nil.
func NewWithConfigSafe[R any](loader Loader[R], config Config) (*Publisher[R], error) {
	if err := validation.ValidateNotNil("progress", "loader", loader); err != nil {
		return nil, err
	}
	if config.Name == "" {
		config.Name = DefaultConfig().Name
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return &Publisher[R]{loader: loader, config: config}, nil
}

// Name returns the configured publisher name.
func (p *Publisher[R]) Name() string {
	return p.config.Name
}

// Subscribe registers s as the sole consumer of a new subscription and hands
// the subscription to s.OnSubscribe. The loader is not started until s
// requests demand.
func (p *Publisher[R]) Subscribe(s reactive.Subscriber[LoadResult[R]]) {
	sub := newSubscription(p.loader, s, p.config.Logger.With(zap.String("publisher", p.config.Name)))
	s.OnSubscribe(sub)
}
