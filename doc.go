/*
Package loadflow turns callback-style, cancellable loads that report progress
into reactive streams.

Streaming (pkg/streaming):
  - reactive: Publisher/Subscriber/Subscription contract, Sink and Collect
  - progress: Publisher bridging a Loader into a stream of LoadResult values

Loaders (pkg/loader):
  - Task: run a function with progress reporting and context cancellation
  - Paced: replay progress checkpoints on a cron or interval schedule
  - redisjob: follow a job another process reports into Redis

Example usage:

	import (
		"github.com/vnykmshr/loadflow/pkg/loader"
		"github.com/vnykmshr/loadflow/pkg/streaming/progress"
		"github.com/vnykmshr/loadflow/pkg/streaming/reactive"
	)

	task := loader.NewTask(func(ctx context.Context, report progress.ProgressFunc) (int, error) {
		report(0.5)
		return 42, nil
	})

	items, err := reactive.Collect[progress.LoadResult[int]](ctx, progress.New[int](task))
*/
package loadflow
