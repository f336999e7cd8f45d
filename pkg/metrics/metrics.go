// Package metrics provides Prometheus instrumentation for loadflow components.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values for terminated subscriptions.
const (
	OutcomeFinished  = "finished"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Registry holds all metric instances for loadflow components.
type Registry struct {
	// Progress publisher metrics
	Subscriptions       *prometheus.CounterVec
	ActiveSubscriptions *prometheus.GaugeVec
	ProgressEvents      *prometheus.CounterVec
	LastProgress        *prometheus.GaugeVec
	Terminations        *prometheus.CounterVec
	LoadDuration        *prometheus.HistogramVec

	// Remote job metrics
	RemotePolls  *prometheus.CounterVec
	RemoteErrors *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by loadflow components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
// Collectors that are already registered on reg are reused, so calling NewRegistry
// twice with the same registerer yields registries sharing the same series.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return NewRegistryFromConfig(Config{Enabled: true, Registry: reg})
}

// NewRegistryFromConfig creates a registry honoring the namespace and constant
// labels of config. A nil config.Registry means prometheus.DefaultRegisterer.
func NewRegistryFromConfig(config Config) *Registry {
	reg := config.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ns := config.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	labels := config.Labels

	return &Registry{
		Subscriptions: counterVec(reg, prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "progress",
			Name:        "subscriptions_total",
			Help:        "Total number of subscriptions created by progress publishers",
			ConstLabels: labels,
		}, "publisher"),

		ActiveSubscriptions: gaugeVec(reg, prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   "progress",
			Name:        "active_subscriptions",
			Help:        "Number of subscriptions that have not terminated",
			ConstLabels: labels,
		}, "publisher"),

		ProgressEvents: counterVec(reg, prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "progress",
			Name:        "events_total",
			Help:        "Total number of load results delivered to subscribers",
			ConstLabels: labels,
		}, "publisher"),

		LastProgress: gaugeVec(reg, prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   "progress",
			Name:        "last_value",
			Help:        "Most recent progress fraction delivered",
			ConstLabels: labels,
		}, "publisher"),

		Terminations: counterVec(reg, prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "progress",
			Name:        "terminations_total",
			Help:        "Total number of subscriptions that finished, failed or were cancelled",
			ConstLabels: labels,
		}, "publisher", "outcome"),

		LoadDuration: histogramVec(reg, prometheus.HistogramOpts{
			Namespace:   ns,
			Subsystem:   "progress",
			Name:        "load_duration_seconds",
			Help:        "Time from the first request until the subscription terminated",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}, "publisher", "outcome"),

		RemotePolls: counterVec(reg, prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "remote",
			Name:        "polls_total",
			Help:        "Total number of remote job state reads",
			ConstLabels: labels,
		}, "key_prefix"),

		RemoteErrors: counterVec(reg, prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   "remote",
			Name:        "errors_total",
			Help:        "Total number of failed remote job state reads",
			ConstLabels: labels,
		}, "key_prefix"),
	}
}

func counterVec(reg prometheus.Registerer, opts prometheus.CounterOpts, labels ...string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(opts, labels)
	if existing := register(reg, c); existing != nil {
		return existing.(*prometheus.CounterVec)
	}
	return c
}

func gaugeVec(reg prometheus.Registerer, opts prometheus.GaugeOpts, labels ...string) *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(opts, labels)
	if existing := register(reg, g); existing != nil {
		return existing.(*prometheus.GaugeVec)
	}
	return g
}

func histogramVec(reg prometheus.Registerer, opts prometheus.HistogramOpts, labels ...string) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(opts, labels)
	if existing := register(reg, h); existing != nil {
		return existing.(*prometheus.HistogramVec)
	}
	return h
}

// register returns the already registered collector when c collides with it.
func register(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	err := reg.Register(c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		return are.ExistingCollector
	}
	panic(err)
}
