package reactive

import "math"

// Unbounded is the demand a subscriber passes to Request when it accepts
// every item the publisher produces.
const Unbounded int64 = math.MaxInt64

// Publisher is a source of items delivered to one subscriber per subscription.
type Publisher[T any] interface {
	// Subscribe creates a new subscription for s and passes it to
	// s.OnSubscribe before returning.
	Subscribe(s Subscriber[T])
}

// Subscriber receives the signals of one subscription.
type Subscriber[T any] interface {
	// OnSubscribe hands over the subscription used to request and cancel.
	OnSubscribe(sub Subscription)

	// OnNext delivers one item.
	OnNext(item T)

	// OnError terminates the subscription with a failure.
	OnError(err error)

	// OnComplete terminates the subscription successfully.
	OnComplete()
}

// Subscription links one subscriber to one publisher.
type Subscription interface {
	// Request signals demand for n more items. n must be positive.
	Request(n int64)

	// Cancel stops delivery. It is idempotent.
	Cancel()
}

// Cancellable is a handle that stops an active subscription.
type Cancellable interface {
	Cancel()
}

// SubscriberFuncs adapts plain functions to Subscriber. Nil fields are skipped.
type SubscriberFuncs[T any] struct {
	SubscribeFunc func(Subscription)
	NextFunc      func(T)
	ErrorFunc     func(error)
	CompleteFunc  func()
}

func (f SubscriberFuncs[T]) OnSubscribe(sub Subscription) {
	if f.SubscribeFunc != nil {
		f.SubscribeFunc(sub)
	}
}

func (f SubscriberFuncs[T]) OnNext(item T) {
	if f.NextFunc != nil {
		f.NextFunc(item)
	}
}

func (f SubscriberFuncs[T]) OnError(err error) {
	if f.ErrorFunc != nil {
		f.ErrorFunc(err)
	}
}

func (f SubscriberFuncs[T]) OnComplete() {
	if f.CompleteFunc != nil {
		f.CompleteFunc()
	}
}
