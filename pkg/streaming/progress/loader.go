package progress

// ProgressFunc receives the completed fraction of a load, from 0 to 1.
// A Publisher drops NaN, values of 1 or more and values below the last one
// it forwarded, and raises negative values to 0.
type ProgressFunc func(progress float64)

// CompletionFunc receives the outcome of a load. Exactly one of result and
// err is non-nil.
type CompletionFunc[R any] func(result *R, err error)

// Loader is a cancellable asynchronous operation that reports progress.
//
// Start begins the load and returns without waiting for it. The loader calls
// onProgress zero or more times and then onComplete exactly once, from any
// goroutine. Reporting a progress of 1 does not complete the load; only
// onComplete does.
//
// Cancel asks the loader to stop. It must not block waiting for the load to
// wind down, since it may be called from inside onProgress.
//
// A Loader instance that keeps per-run state must not be shared by
// subscriptions that are active at the same time.
type Loader[R any] interface {
	Start(onProgress ProgressFunc, onComplete CompletionFunc[R])
	Cancel()
}

// LoaderFuncs adapts a pair of functions to Loader. A nil CancelFunc makes
// Cancel a no-op.
type LoaderFuncs[R any] struct {
	StartFunc  func(onProgress ProgressFunc, onComplete CompletionFunc[R])
	CancelFunc func()
}

func (f LoaderFuncs[R]) Start(onProgress ProgressFunc, onComplete CompletionFunc[R]) {
	f.StartFunc(onProgress, onComplete)
}

func (f LoaderFuncs[R]) Cancel() {
	if f.CancelFunc != nil {
		f.CancelFunc()
	}
}
