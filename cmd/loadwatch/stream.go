package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/vnykmshr/loadflow/internal/logging"
	"github.com/vnykmshr/loadflow/pkg/streaming/progress"
	"github.com/vnykmshr/loadflow/pkg/streaming/reactive"
)

// follow subscribes to pub and writes one line per item until the stream
// terminates, ctx is done, or cancelAfter items have been printed.
func follow[R any](ctx context.Context, out io.Writer, logger *zap.Logger, pub reactive.Publisher[progress.LoadResult[R]],
	render func(progress.LoadResult[R]) string, cancelAfter int) error {
	var (
		sub       reactive.Subscription
		seen      int
		once      sync.Once
		done      = make(chan error, 1)
		cancelled = make(chan struct{})
	)

	pub.Subscribe(reactive.SubscriberFuncs[progress.LoadResult[R]]{
		SubscribeFunc: func(s reactive.Subscription) {
			sub = s
			s.Request(reactive.Unbounded)
		},
		NextFunc: func(item progress.LoadResult[R]) {
			fmt.Fprintln(out, render(item))
			logger.Debug("load update", logging.Progress(item.Progress), zap.Bool("final", item.HasResult))
			seen++
			if cancelAfter > 0 && seen >= cancelAfter && !item.HasResult {
				once.Do(func() {
					sub.Cancel()
					close(cancelled)
				})
			}
		},
		ErrorFunc:    func(err error) { done <- err },
		CompleteFunc: func() { done <- nil },
	})

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("load failed: %w", err)
		}
		fmt.Fprintln(out, "completed")
		return nil
	case <-cancelled:
		fmt.Fprintf(out, "cancelled after %d updates\n", seen)
		return nil
	case <-ctx.Done():
		sub.Cancel()
		return ctx.Err()
	}
}
