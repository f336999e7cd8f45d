package testutil

import (
	"sync"

	"github.com/vnykmshr/loadflow/pkg/streaming/progress"
)

// MockLoader is a scripted progress.Loader. Start only records the callbacks;
// the test then drives them with Progress, Succeed, Fail and Complete from
// whichever goroutine it likes.
type MockLoader[R any] struct {
	mu         sync.Mutex
	onProgress progress.ProgressFunc
	onComplete progress.CompletionFunc[R]
	starts     int
	cancels    int
	started    chan struct{}

	// OnStart, if set, runs inside Start after the callbacks are recorded.
	OnStart func(l *MockLoader[R])

	// OnCancel, if set, runs inside Cancel.
	OnCancel func(l *MockLoader[R])
}

// NewMockLoader creates an idle MockLoader.
func NewMockLoader[R any]() *MockLoader[R] {
	return &MockLoader[R]{started: make(chan struct{})}
}

// Start implements progress.Loader.
func (l *MockLoader[R]) Start(onProgress progress.ProgressFunc, onComplete progress.CompletionFunc[R]) {
	l.mu.Lock()
	l.onProgress = onProgress
	l.onComplete = onComplete
	l.starts++
	if l.starts == 1 {
		close(l.started)
	}
	hook := l.OnStart
	l.mu.Unlock()

	if hook != nil {
		hook(l)
	}
}

// Cancel implements progress.Loader.
func (l *MockLoader[R]) Cancel() {
	l.mu.Lock()
	l.cancels++
	hook := l.OnCancel
	l.mu.Unlock()

	if hook != nil {
		hook(l)
	}
}

// Started is closed on the first Start.
func (l *MockLoader[R]) Started() <-chan struct{} {
	return l.started
}

// Starts returns how many times Start was called.
func (l *MockLoader[R]) Starts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.starts
}

// Cancels returns how many times Cancel was called.
func (l *MockLoader[R]) Cancels() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancels
}

// Progress invokes the recorded progress callback.
func (l *MockLoader[R]) Progress(p float64) {
	l.mu.Lock()
	fn := l.onProgress
	l.mu.Unlock()
	fn(p)
}

// Complete invokes the recorded completion callback verbatim.
func (l *MockLoader[R]) Complete(result *R, err error) {
	l.mu.Lock()
	fn := l.onComplete
	l.mu.Unlock()
	fn(result, err)
}

// Succeed completes with result.
func (l *MockLoader[R]) Succeed(result R) {
	l.Complete(&result, nil)
}

// Fail completes with err.
func (l *MockLoader[R]) Fail(err error) {
	l.Complete(nil, err)
}
