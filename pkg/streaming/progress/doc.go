/*
Package progress adapts a callback-based, cancellable, progress-reporting
operation into a reactive stream of LoadResult values.

A Loader reports progress through one callback and its outcome through
another. A Publisher binds a loader; each subscription to it starts the
loader on the first positive demand and translates the callbacks into
stream signals:

	onProgress(p)          -> OnNext(LoadResult{Progress: p})
	onComplete(&r, nil)    -> OnNext(LoadResult{Progress: 1, Result: r, HasResult: true}), OnComplete()
	onComplete(nil, err)   -> OnError(err)
	onComplete(nil, nil)   -> panic(*errors.ContractViolation)

Basic usage:

	pub := progress.New[string](loader)

	cancel := reactive.Sink[progress.LoadResult[string]](pub,
		func(r progress.LoadResult[string]) {
			if v, ok := r.Value(); ok {
				fmt.Println("done:", v)
				return
			}
			fmt.Printf("%.0f%%\n", r.Progress*100)
		},
		func(err error) {
			if err != nil {
				log.Printf("load failed: %v", err)
			}
		},
	)
	defer cancel.Cancel()

Subscription lifecycle:

A subscription is Idle until its subscriber requests demand, Active while the
loader runs, and Terminal after the load finished, failed or was cancelled.
Terminal is final: no signal reaches the subscriber afterwards. Cancel is
idempotent and tells the loader to stop at most once.

Concurrency:

Loader callbacks may come from any goroutine. Signals to one subscriber are
serialized and never overlap, and a subscriber may call Request or Cancel
from inside OnNext. Cancellation suppresses everything that has not started
dispatching yet; a signal already being dispatched on another goroutine when
Cancel is called may still arrive, never more than that one.

Contract violations:

A loader that completes with neither a result nor an error, or with both, is
defective. The subscription panics with *errors.ContractViolation instead of
leaving the subscriber waiting forever.

Metrics:

NewWithMetrics and NewWithConfigAndMetrics return an InstrumentedPublisher that
records subscriptions, delivered results, terminations by outcome and load
durations in Prometheus.
*/
package progress
