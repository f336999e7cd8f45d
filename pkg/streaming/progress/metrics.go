package progress

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/loadflow/pkg/metrics"
	"github.com/vnykmshr/loadflow/pkg/streaming/reactive"
)

// InstrumentedPublisher wraps a Publisher with Prometheus metrics collection.
type InstrumentedPublisher[R any] struct {
	publisher *Publisher[R]
	registry  atomic.Pointer[metrics.Registry]
}

var (
	_ reactive.Publisher[LoadResult[struct{}]] = (*InstrumentedPublisher[struct{}])(nil)
	_ metrics.Instrumentable                   = (*InstrumentedPublisher[struct{}])(nil)
)

// NewWithMetrics creates a publisher with metrics enabled under name.
func NewWithMetrics[R any](loader Loader[R], name string) *InstrumentedPublisher[R] {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	config := DefaultConfig()
	config.Name = name
	return NewWithConfigAndMetrics(loader, config, metrics.Config{
		Enabled:  true,
		Registry: prometheus.NewRegistry(),
	})
}

// NewWithConfigAndMetrics creates a publisher with custom config and metrics.
// Metrics stay disabled when metricsConfig.Enabled is false; they can be
// switched on later with EnableMetrics. It panics if loader is nil.
func NewWithConfigAndMetrics[R any](loader Loader[R], config Config, metricsConfig metrics.Config) *InstrumentedPublisher[R] {
	ip := &InstrumentedPublisher[R]{
		publisher: NewWithConfig(loader, config),
	}
	if metricsConfig.Enabled {
		_ = ip.EnableMetrics(metricsConfig)
	}
	return ip
}

// Name returns the publisher name used as the metric label.
func (ip *InstrumentedPublisher[R]) Name() string {
	return ip.publisher.Name()
}

// Registry returns the active metrics registry, or nil when disabled.
func (ip *InstrumentedPublisher[R]) Registry() *metrics.Registry {
	return ip.registry.Load()
}

// EnableMetrics starts recording into the registry described by config.
// A config with Enabled unset switches metrics off instead.
// Subscriptions created before the call are not instrumented.
func (ip *InstrumentedPublisher[R]) EnableMetrics(config metrics.Config) error {
	if !config.Enabled {
		ip.registry.Store(nil)
		return nil
	}

	registry := metrics.DefaultRegistry
	if config.Registry != nil || config.Namespace != "" || len(config.Labels) > 0 {
		registry = metrics.NewRegistryFromConfig(config)
	}
	ip.registry.Store(registry)
	return nil
}

// DisableMetrics stops instrumenting new subscriptions.
func (ip *InstrumentedPublisher[R]) DisableMetrics() {
	ip.registry.Store(nil)
}

// MetricsEnabled returns true if metrics are currently enabled.
func (ip *InstrumentedPublisher[R]) MetricsEnabled() bool {
	return ip.registry.Load() != nil
}

// Subscribe implements reactive.Publisher.
func (ip *InstrumentedPublisher[R]) Subscribe(s reactive.Subscriber[LoadResult[R]]) {
	registry := ip.registry.Load()
	if registry == nil {
		ip.publisher.Subscribe(s)
		return
	}
	ip.publisher.Subscribe(&instrumentedSubscriber[R]{
		next:     s,
		name:     ip.publisher.Name(),
		registry: registry,
	})
}

// instrumentedSubscriber records the signals flowing to next.
type instrumentedSubscriber[R any] struct {
	next     reactive.Subscriber[LoadResult[R]]
	name     string
	registry *metrics.Registry

	startOnce  sync.Once
	finishOnce sync.Once
	started    atomic.Int64 // unix nanos of the first Request
}

func (is *instrumentedSubscriber[R]) OnSubscribe(sub reactive.Subscription) {
	is.registry.Subscriptions.WithLabelValues(is.name).Inc()
	is.registry.ActiveSubscriptions.WithLabelValues(is.name).Inc()
	is.next.OnSubscribe(&instrumentedSubscription[R]{sub: sub, owner: is})
}

func (is *instrumentedSubscriber[R]) OnNext(item LoadResult[R]) {
	is.registry.ProgressEvents.WithLabelValues(is.name).Inc()
	is.registry.LastProgress.WithLabelValues(is.name).Set(item.Progress)
	is.next.OnNext(item)
}

func (is *instrumentedSubscriber[R]) OnError(err error) {
	is.finish(metrics.OutcomeFailed)
	is.next.OnError(err)
}

func (is *instrumentedSubscriber[R]) OnComplete() {
	is.finish(metrics.OutcomeFinished)
	is.next.OnComplete()
}

func (is *instrumentedSubscriber[R]) markStarted() {
	is.startOnce.Do(func() {
		is.started.Store(time.Now().UnixNano())
	})
}

func (is *instrumentedSubscriber[R]) finish(outcome string) {
	is.finishOnce.Do(func() {
		is.registry.ActiveSubscriptions.WithLabelValues(is.name).Dec()
		is.registry.Terminations.WithLabelValues(is.name, outcome).Inc()
		if started := is.started.Load(); started != 0 {
			elapsed := time.Since(time.Unix(0, started))
			is.registry.LoadDuration.WithLabelValues(is.name, outcome).Observe(elapsed.Seconds())
		}
	})
}

type instrumentedSubscription[R any] struct {
	sub   reactive.Subscription
	owner *instrumentedSubscriber[R]
}

func (s *instrumentedSubscription[R]) Request(n int64) {
	if n > 0 {
		s.owner.markStarted()
	}
	s.sub.Request(n)
}

func (s *instrumentedSubscription[R]) Cancel() {
	s.owner.finish(metrics.OutcomeCancelled)
	s.sub.Cancel()
}
