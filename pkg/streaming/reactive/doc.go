/*
Package reactive defines the minimal producer/consumer contract used by loadflow
streams: a Publisher hands each Subscriber its own Subscription, the subscriber
signals demand through it, and the publisher answers with zero or more OnNext
calls followed by exactly one OnComplete or OnError, unless the subscriber
cancels first.

The contract follows the Reactive Streams rules that matter for a
single-subscriber, producer-paced source:

  - OnSubscribe is called exactly once, synchronously, inside Subscribe.
  - Nothing is delivered until Request is called with positive demand.
  - Signals to one subscriber never overlap; they arrive in order.
  - After OnComplete or OnError nothing else is delivered.
  - After Cancel nothing else is delivered, except a signal that was already
    being dispatched on another goroutine when Cancel was called.
  - Request and Cancel may be called from inside OnNext.

Two consumer helpers are provided:

	// Push style: callbacks plus a cancel handle.
	c := reactive.Sink(pub,
		func(v T) { fmt.Println(v) },
		func(err error) { fmt.Println("done:", err) },
	)
	defer c.Cancel()

	// Blocking style: gather everything or stop when ctx is done.
	values, err := reactive.Collect(ctx, pub)

Operators such as mapping, buffering or multicasting are intentionally absent.
*/
package reactive
