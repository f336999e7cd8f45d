/*
Package streaming groups the stream abstractions used across loadflow.

This package provides two streaming components:

  - reactive: Publisher, Subscriber and Subscription with demand and cancellation
  - progress: a Publisher that drives a callback loader and emits LoadResult values

Basic usage:

	pub := progress.New[Image](imageLoader)

	c := reactive.Sink[progress.LoadResult[Image]](pub,
		func(r progress.LoadResult[Image]) { bar.Set(r.Progress) },
		func(err error) { done <- err },
	)
	defer c.Cancel()

Every subscription drives its own run of the loader, emits progress updates in
order, and ends with exactly one completion or error unless it is cancelled.
*/
package streaming
