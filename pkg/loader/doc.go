/*
Package loader provides ready-made progress.Loader implementations.

Task runs a function in its own goroutine and hands it a context that is
cancelled when the subscription is cancelled:

	task := loader.NewTask(func(ctx context.Context, report progress.ProgressFunc) ([]byte, error) {
		return download(ctx, url, func(done, total int64) {
			report(float64(done) / float64(total))
		})
	})
	pub := progress.New[[]byte](task)

Paced replays fixed progress checkpoints on a schedule and then completes,
which is handy for demos and tests:

	paced := loader.NewPaced(loader.PacedConfig[string]{
		Values:   []float64{0, 0.5, 1},
		Result:   "success",
		Schedule: loader.Every(200 * time.Millisecond),
	})

Schedules are robfig/cron schedules. Every gives sub-second intervals, and
ParseSchedule accepts both "@every <duration>" and standard cron specs.

Both loaders keep per-run state: a Start while a previous run is still
going is ignored, so use one loader per concurrent subscription.
*/
package loader
