package reactive

import (
	"context"
	"sync"
)

// sink is a subscriber that requests unbounded demand and forwards to callbacks.
type sink[T any] struct {
	onNext     func(T)
	onTerminal func(error)

	mu        sync.Mutex
	sub       Subscription
	cancelled bool
	done      bool
}

// Sink subscribes to pub with unbounded demand. onNext receives every item;
// onTerminal is called once with nil on completion or with the failure error.
// onTerminal is not called when the returned handle cancels first.
// Either callback may be nil.
func Sink[T any](pub Publisher[T], onNext func(T), onTerminal func(error)) Cancellable {
	s := &sink[T]{onNext: onNext, onTerminal: onTerminal}
	pub.Subscribe(s)
	return s
}

func (s *sink[T]) OnSubscribe(sub Subscription) {
	s.mu.Lock()
	if s.cancelled || s.sub != nil {
		s.mu.Unlock()
		sub.Cancel()
		return
	}
	s.sub = sub
	s.mu.Unlock()

	sub.Request(Unbounded)
}

func (s *sink[T]) OnNext(item T) {
	if s.onNext != nil {
		s.onNext(item)
	}
}

func (s *sink[T]) OnError(err error) {
	s.finish(err)
}

func (s *sink[T]) OnComplete() {
	s.finish(nil)
}

func (s *sink[T]) finish(err error) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	s.sub = nil
	s.mu.Unlock()

	if s.onTerminal != nil {
		s.onTerminal(err)
	}
}

// Cancel stops the subscription. Calling it more than once has no effect.
func (s *sink[T]) Cancel() {
	s.mu.Lock()
	if s.cancelled {
		s.mu.Unlock()
		return
	}
	s.cancelled = true
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
}

// Collect subscribes to pub and blocks until the stream terminates or ctx is
// done. On success it returns every item in delivery order. On failure it
// returns the items received so far together with the error. When ctx is done
// first the subscription is cancelled and ctx.Err() is returned.
func Collect[T any](ctx context.Context, pub Publisher[T]) ([]T, error) {
	var (
		mu    sync.Mutex
		items []T
	)
	done := make(chan error, 1)

	c := Sink(pub,
		func(item T) {
			mu.Lock()
			items = append(items, item)
			mu.Unlock()
		},
		func(err error) { done <- err },
	)

	select {
	case err := <-done:
		mu.Lock()
		defer mu.Unlock()
		return append([]T(nil), items...), err
	case <-ctx.Done():
		c.Cancel()
		mu.Lock()
		defer mu.Unlock()
		return append([]T(nil), items...), ctx.Err()
	}
}
