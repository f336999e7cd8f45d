package redisjob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	lferrors "github.com/vnykmshr/loadflow/pkg/common/errors"
	"github.com/vnykmshr/loadflow/pkg/streaming/progress"
)

// Loader is a progress.Loader that follows a job published by a Reporter.
// It polls the job hash and decodes the stored JSON result into R.
type Loader[R any] struct {
	config Config
	job    string
	key    string
	logger *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var _ progress.Loader[struct{}] = (*Loader[struct{}])(nil)

// jobState is one read of the job hash.
type jobState struct {
	exists   bool
	progress float64
	state    string
	result   string
	reason   string
}

// NewLoader creates a Loader for job.
func NewLoader[R any](config Config, job string) (*Loader[R], error) {
	if err := validateConfig(config, job); err != nil {
		return nil, err
	}
	config = applyConfigDefaults(config)

	return &Loader[R]{
		config: config,
		job:    job,
		key:    Key(config.KeyPrefix, job),
		logger: config.Logger.With(zap.String("job", job)),
	}, nil
}

// Start implements progress.Loader. A Start while a poll is running is ignored.
func (l *Loader[R]) Start(onProgress progress.ProgressFunc, onComplete progress.CompletionFunc[R]) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running() {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})
	go l.poll(ctx, l.done, onProgress, onComplete)
}

// Cancel implements progress.Loader. It stops polling; the cancel flag is
// written to the job hash by the polling goroutine as it exits.
func (l *Loader[R]) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

// Wait blocks until the current poll, if any, has returned.
func (l *Loader[R]) Wait() {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (l *Loader[R]) running() bool {
	if l.done == nil {
		return false
	}
	select {
	case <-l.done:
		return false
	default:
		return true
	}
}

func (l *Loader[R]) poll(ctx context.Context, done chan struct{}, onProgress progress.ProgressFunc, onComplete progress.CompletionFunc[R]) {
	defer close(done)

	ticker := time.NewTicker(l.config.PollInterval)
	defer ticker.Stop()

	last := 0.0
	failures := 0
	for {
		st, err := l.read(ctx)
		if ctx.Err() != nil {
			l.requestCancel()
			return
		}

		if err != nil {
			failures++
			l.countError()
			if !lferrors.IsRetryable(err) || failures >= l.config.MaxConsecutiveErrors {
				l.logger.Warn("job poll failed, giving up", zap.Int("consecutive", failures), zap.Error(err))
				onComplete(nil, err)
				return
			}
			l.logger.Warn("job poll failed", zap.Int("consecutive", failures), zap.Error(err))
		} else {
			failures = 0
			if st.exists && st.progress > last && st.progress < 1 {
				last = st.progress
				onProgress(st.progress)
			}

			switch st.state {
			case StateDone:
				result, err := l.decode(st.result)
				if err != nil {
					onComplete(nil, err)
					return
				}
				onComplete(&result, nil)
				return
			case StateFailed:
				onComplete(nil, &JobError{Job: l.job, Reason: st.reason})
				return
			}
		}

		select {
		case <-ctx.Done():
			l.requestCancel()
			return
		case <-ticker.C:
		}
	}
}

func (l *Loader[R]) read(ctx context.Context) (jobState, error) {
	if l.config.Metrics != nil {
		l.config.Metrics.RemotePolls.WithLabelValues(l.config.KeyPrefix).Inc()
	}

	ctx, cancel := context.WithTimeout(ctx, l.config.RedisTimeout)
	defer cancel()

	fields, err := l.config.Redis.HGetAll(ctx, l.key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return jobState{}, &RedisError{"poll", classify(err)}
	}
	if len(fields) == 0 {
		return jobState{}, nil
	}

	st := jobState{
		exists: true,
		state:  fields[fieldState],
		result: fields[fieldResult],
		reason: fields[fieldError],
	}
	if raw, ok := fields[fieldProgress]; ok {
		p, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return jobState{}, &RedisError{"poll", err}
		}
		st.progress = p
	}
	return st, nil
}

// classify tags a client error so the poll loop can tell a closed client,
// which never recovers, from a timeout or a server that may come back.
func classify(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, redis.ErrClosed):
		return fmt.Errorf("%w: %w", lferrors.ErrClosed, err)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %w", lferrors.ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %w", lferrors.ErrUnavailable, err)
	}
}

func (l *Loader[R]) decode(payload string) (R, error) {
	var result R
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return result, lferrors.NewOperationError("redisjob", "decode", err).WithContext("job " + l.job)
	}
	return result, nil
}

// requestCancel sets the cancel flag so a cooperating worker can stop.
func (l *Loader[R]) requestCancel() {
	ctx, cancel := context.WithTimeout(context.Background(), l.config.RedisTimeout)
	defer cancel()

	_, err := l.config.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, l.key, fieldCancel, "1")
		pipe.Expire(ctx, l.key, l.config.KeyTTL)
		return nil
	})
	if err != nil {
		l.countError()
		l.logger.Warn("job cancel flag not written", zap.Error(err))
	}
}

func (l *Loader[R]) countError() {
	if l.config.Metrics != nil {
		l.config.Metrics.RemoteErrors.WithLabelValues(l.config.KeyPrefix).Inc()
	}
}
