package progress

import (
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	lferrors "github.com/vnykmshr/loadflow/pkg/common/errors"
	"github.com/vnykmshr/loadflow/pkg/streaming/reactive"
)

// state is the lifecycle position of a subscription. Terminal is absorbing.
type state int32

const (
	stateIdle state = iota
	stateActive
	stateTerminal
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateActive:
		return "active"
	case stateTerminal:
		return "terminal"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

type signalKind uint8

const (
	signalNext signalKind = iota
	signalComplete
	signalError
)

// signal is one queued call to the subscriber.
type signal[R any] struct {
	kind  signalKind
	value LoadResult[R]
	err   error
}

func (sig signal[R]) terminal() bool {
	return sig.kind != signalNext
}

func (sig signal[R]) dispatch(s reactive.Subscriber[LoadResult[R]]) {
	switch sig.kind {
	case signalNext:
		s.OnNext(sig.value)
	case signalComplete:
		s.OnComplete()
	case signalError:
		s.OnError(sig.err)
	}
}

// subscription drives one loader run on behalf of one subscriber.
//
// Loader callbacks may arrive on any goroutine. They are appended to queue
// under mu and delivered by whichever goroutine holds the emitting flag, so
// the subscriber sees one signal at a time and may call Request or Cancel
// from inside OnNext. subscriber is cleared on cancellation and when the
// terminal signal is handed out; a nil subscriber drops everything.
type subscription[R any] struct {
	id     string
	loader Loader[R]
	logger *zap.Logger

	mu              sync.Mutex
	state           state
	subscriber      reactive.Subscriber[LoadResult[R]]
	queue           []signal[R]
	emitting        bool
	starting        bool
	cancelRequested bool
	progress        float64 // last forwarded
}

func newSubscription[R any](loader Loader[R], subscriber reactive.Subscriber[LoadResult[R]], logger *zap.Logger) *subscription[R] {
	id := uuid.NewString()
	return &subscription[R]{
		id:         id,
		loader:     loader,
		logger:     logger.With(zap.String("subscription", id)),
		subscriber: subscriber,
	}
}

// Request starts the loader on the first positive demand. Demand is not
// metered: the loader paces emission. Non-positive demand fails the
// subscription with ErrInvalidDemand.
func (s *subscription[R]) Request(n int64) {
	if n <= 0 {
		s.abort(fmt.Errorf("request(%d): %w", n, lferrors.ErrInvalidDemand))
		return
	}

	s.mu.Lock()
	if s.state != stateIdle {
		s.mu.Unlock()
		return
	}
	s.state = stateActive
	s.starting = true
	s.mu.Unlock()

	s.logger.Debug("starting load", zap.Int64("demand", n))
	s.loader.Start(s.onProgress, s.onComplete)

	s.mu.Lock()
	s.starting = false
	cancelNow := s.cancelRequested
	s.mu.Unlock()

	if cancelNow {
		s.loader.Cancel()
	}
}

// Cancel stops delivery and asks the loader to stop. The loader is told
// exactly once on the first Cancel, whether or not it was started, unless a
// terminal signal was already accepted.
func (s *subscription[R]) Cancel() {
	s.mu.Lock()
	if s.subscriber == nil {
		s.mu.Unlock()
		return
	}
	prev := s.state
	s.state = stateTerminal
	s.subscriber = nil
	s.queue = nil
	stopLoader := prev != stateTerminal
	if prev == stateActive && s.starting {
		// Start has not returned yet; Request cancels once it does.
		s.cancelRequested = true
		stopLoader = false
	}
	s.mu.Unlock()

	s.logger.Debug("subscription cancelled", zap.Stringer("from", prev))
	if stopLoader {
		s.loader.Cancel()
	}
}

// onProgress queues a progress report. NaN, values of 1 or more and
// regressions are dropped; negative values are raised to 0.
func (s *subscription[R]) onProgress(p float64) {
	if math.IsNaN(p) || p >= 1 {
		return
	}
	p = math.Max(p, 0)

	s.mu.Lock()
	if s.state != stateActive || p < s.progress {
		s.mu.Unlock()
		return
	}
	s.progress = p
	s.queue = append(s.queue, signal[R]{kind: signalNext, value: Pending[R](p)})
	s.mu.Unlock()

	s.drain()
}

func (s *subscription[R]) onComplete(result *R, err error) {
	switch {
	case result != nil && err != nil:
		panic(&lferrors.ContractViolation{
			Component: "progress",
			Detail:    fmt.Sprintf("completion carried both a result and an error (%v)", err),
		})
	case result != nil:
		if s.offer(
			signal[R]{kind: signalNext, value: Completed(*result)},
			signal[R]{kind: signalComplete},
		) {
			s.logger.Debug("load finished")
		}
	case err != nil:
		if s.offer(signal[R]{kind: signalError, err: err}) {
			s.logger.Debug("load failed", zap.Error(err))
		}
	default:
		panic(&lferrors.ContractViolation{
			Component: "progress",
			Detail:    "completion carried neither a result nor an error",
		})
	}
}

// abort terminates the subscription with err, stopping the loader if it runs.
func (s *subscription[R]) abort(err error) {
	s.mu.Lock()
	if s.state == stateTerminal {
		s.mu.Unlock()
		return
	}
	prev := s.state
	s.state = stateTerminal
	s.queue = append(s.queue, signal[R]{kind: signalError, err: err})
	stopLoader := prev == stateActive
	if stopLoader && s.starting {
		s.cancelRequested = true
		stopLoader = false
	}
	s.mu.Unlock()

	s.logger.Debug("subscription aborted", zap.Error(err))
	if stopLoader {
		s.loader.Cancel()
	}
	s.drain()
}

// offer queues signals while the subscription is active and delivers them.
// A terminal signal closes the subscription to anything offered later.
// It reports whether the signals were accepted.
func (s *subscription[R]) offer(sigs ...signal[R]) bool {
	s.mu.Lock()
	if s.state != stateActive {
		s.mu.Unlock()
		return false
	}
	for _, sig := range sigs {
		s.queue = append(s.queue, sig)
		if sig.terminal() {
			s.state = stateTerminal
			break
		}
	}
	s.mu.Unlock()

	s.drain()
	return true
}

// drain delivers queued signals unless another goroutine already is.
func (s *subscription[R]) drain() {
	s.mu.Lock()
	if s.emitting {
		s.mu.Unlock()
		return
	}
	s.emitting = true

	for len(s.queue) > 0 && s.subscriber != nil {
		sig := s.queue[0]
		s.queue[0] = signal[R]{}
		s.queue = s.queue[1:]

		target := s.subscriber
		if sig.terminal() {
			s.subscriber = nil
			s.queue = nil
		}
		s.mu.Unlock()

		sig.dispatch(target)

		s.mu.Lock()
	}

	s.queue = nil
	s.emitting = false
	s.mu.Unlock()
}
