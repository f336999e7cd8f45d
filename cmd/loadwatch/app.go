package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vnykmshr/loadflow/internal/config"
	"github.com/vnykmshr/loadflow/internal/logging"
	"github.com/vnykmshr/loadflow/pkg/loader/redisjob"
	"github.com/vnykmshr/loadflow/pkg/metrics"
)

// app holds the services shared by subcommands.
type app struct {
	cfg           config.Config
	logger        *zap.Logger
	registry      *prometheus.Registry
	metricsConfig metrics.Config
	remote        *metrics.Registry

	rdb      redis.UniversalClient
	server   *http.Server
	listener net.Listener
}

func (a *app) init(cfg config.Config) error {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metricsConfig = metrics.Config{
		Enabled:   true,
		Registry:  a.registry,
		Namespace: cfg.Metrics.Namespace,
	}
	a.remote = metrics.NewRegistryFromConfig(a.metricsConfig)

	if cfg.Metrics.Addr != "" {
		if err := a.serveMetrics(cfg.Metrics.Addr); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) serveMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry}))
	a.listener = ln
	a.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	a.logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))
	return nil
}

// metricsAddr returns the bound metrics address, or "" when not serving.
func (a *app) metricsAddr() string {
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// redis returns the job store client, dialing lazily.
func (a *app) redis() redis.UniversalClient {
	if a.rdb == nil {
		a.rdb = redis.NewClient(&redis.Options{Addr: a.cfg.Redis.Addr})
	}
	return a.rdb
}

func (a *app) jobConfig() redisjob.Config {
	return redisjob.Config{
		Redis:                a.redis(),
		KeyPrefix:            a.cfg.Redis.KeyPrefix,
		PollInterval:         a.cfg.Redis.PollInterval,
		RedisTimeout:         a.cfg.Redis.Timeout,
		KeyTTL:               a.cfg.Redis.KeyTTL,
		MaxConsecutiveErrors: a.cfg.Redis.MaxConsecutiveErrors,
		Metrics:              a.remote,
		Logger:               a.logger,
	}
}

// Close shuts down the metrics server and the Redis client.
func (a *app) Close() {
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.server.Shutdown(ctx); err != nil {
			a.logger.Warn("metrics server shutdown", zap.Error(err))
		}
		a.server = nil
		a.listener = nil
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Warn("redis close", zap.Error(err))
		}
		a.rdb = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}
