package loader

import (
	"context"
	"fmt"
	"math"
	"runtime/debug"
	"sync"

	"github.com/vnykmshr/loadflow/pkg/streaming/progress"
)

// TaskFunc performs a load. It should return promptly once ctx is done and
// may call report from any goroutine until it returns.
type TaskFunc[R any] func(ctx context.Context, report progress.ProgressFunc) (R, error)

// Task is a progress.Loader that runs a TaskFunc in its own goroutine.
//
// Reported progress is normalized before it is forwarded: NaN and values
// below an earlier report are dropped, negatives become 0, and values of 1
// or more are dropped because completion itself reports 1. A panic inside
// the function completes the load with an error.
type Task[R any] struct {
	fn     TaskFunc[R]
	parent context.Context

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var _ progress.Loader[struct{}] = (*Task[struct{}])(nil)

// NewTask creates a Task running fn. It panics if fn is nil.
func NewTask[R any](fn TaskFunc[R]) *Task[R] {
	return NewTaskWithContext(context.Background(), fn)
}

// NewTaskWithContext creates a Task whose runs derive their context from
// parent, so cancelling parent also stops the load.
func NewTaskWithContext[R any](parent context.Context, fn TaskFunc[R]) *Task[R] {
	if fn == nil {
		panic("loader: task function cannot be nil")
	}
	if parent == nil {
		parent = context.Background()
	}
	return &Task[R]{fn: fn, parent: parent}
}

// Start implements progress.Loader.
func (t *Task[R]) Start(onProgress progress.ProgressFunc, onComplete progress.CompletionFunc[R]) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done != nil {
		select {
		case <-t.done:
		default:
			return
		}
	}

	ctx, cancel := context.WithCancel(t.parent)
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.run(ctx, cancel, t.done, onProgress, onComplete)
}

// Cancel implements progress.Loader by cancelling the run's context.
func (t *Task[R]) Cancel() {
	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Wait blocks until the current run, if any, has returned.
func (t *Task[R]) Wait() {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (t *Task[R]) run(ctx context.Context, cancel context.CancelFunc, done chan struct{},
	onProgress progress.ProgressFunc, onComplete progress.CompletionFunc[R]) {
	defer close(done)
	defer cancel()

	rep := &reporter{forward: onProgress, last: math.Inf(-1)}
	result, err := t.execute(ctx, rep.report)
	rep.close()

	if err != nil {
		onComplete(nil, err)
		return
	}
	onComplete(&result, nil)
}

func (t *Task[R]) execute(ctx context.Context, report progress.ProgressFunc) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v\nStack trace:\n%s", r, debug.Stack())
		}
	}()
	return t.fn(ctx, report)
}

// reporter serializes and normalizes progress reports of one run.
type reporter struct {
	mu      sync.Mutex
	forward progress.ProgressFunc
	last    float64
	closed  bool
}

func (r *reporter) report(p float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || math.IsNaN(p) || p >= 1 {
		return
	}
	if p < 0 {
		p = 0
	}
	if p < r.last {
		return
	}
	r.last = p
	r.forward(p)
}

func (r *reporter) close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}
