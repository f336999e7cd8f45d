package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/vnykmshr/loadflow/pkg/streaming/reactive"
)

// Recorder is a reactive.Subscriber that remembers every signal it receives.
// It does not request demand on its own unless Demand is set.
type Recorder[T any] struct {
	// Demand, when positive, is requested from OnSubscribe.
	Demand int64

	// OnNextHook, if set, runs after an item is recorded.
	OnNextHook func(r *Recorder[T], item T)

	mu          sync.Mutex
	sub         reactive.Subscription
	items       []T
	err         error
	completions int
	errors      int
	subscribes  int
	done        chan struct{}
	changed     chan struct{}
}

// NewRecorder creates a Recorder that requests demand on subscribe.
func NewRecorder[T any](demand int64) *Recorder[T] {
	return &Recorder[T]{
		Demand:  demand,
		done:    make(chan struct{}),
		changed: make(chan struct{}, 1),
	}
}

func (r *Recorder[T]) OnSubscribe(sub reactive.Subscription) {
	r.mu.Lock()
	r.sub = sub
	r.subscribes++
	r.mu.Unlock()

	if r.Demand > 0 {
		sub.Request(r.Demand)
	}
}

func (r *Recorder[T]) OnNext(item T) {
	r.mu.Lock()
	r.items = append(r.items, item)
	r.mu.Unlock()
	r.notify()

	if r.OnNextHook != nil {
		r.OnNextHook(r, item)
	}
}

func (r *Recorder[T]) OnError(err error) {
	r.mu.Lock()
	r.err = err
	r.errors++
	first := r.errors+r.completions == 1
	r.mu.Unlock()
	if first {
		close(r.done)
	}
	r.notify()
}

func (r *Recorder[T]) OnComplete() {
	r.mu.Lock()
	r.completions++
	first := r.errors+r.completions == 1
	r.mu.Unlock()
	if first {
		close(r.done)
	}
	r.notify()
}

func (r *Recorder[T]) notify() {
	select {
	case r.changed <- struct{}{}:
	default:
	}
}

// Subscription returns the subscription handed to OnSubscribe.
func (r *Recorder[T]) Subscription() reactive.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sub
}

// Items returns a copy of the recorded items.
func (r *Recorder[T]) Items() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.items...)
}

// Err returns the error passed to OnError, if any.
func (r *Recorder[T]) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Terminals returns how many times OnComplete and OnError were called.
func (r *Recorder[T]) Terminals() (completions, errors int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completions, r.errors
}

// Subscribes returns how many times OnSubscribe was called.
func (r *Recorder[T]) Subscribes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subscribes
}

// Done is closed on the first terminal signal.
func (r *Recorder[T]) Done() <-chan struct{} {
	return r.done
}

// AwaitTerminal fails the test if no terminal signal arrives within timeout.
func (r *Recorder[T]) AwaitTerminal(t *testing.T, timeout time.Duration) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(timeout):
		t.Fatalf("no terminal signal within %v; items so far: %v", timeout, r.Items())
	}
}

// AwaitItems fails the test unless at least n items arrive within timeout.
func (r *Recorder[T]) AwaitItems(t *testing.T, n int, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		if len(r.Items()) >= n {
			return
		}
		select {
		case <-r.changed:
		case <-deadline:
			t.Fatalf("got %d items within %v, want %d", len(r.Items()), timeout, n)
		}
	}
}
