/*
Package redisjob follows jobs that run in another process through a Redis hash.

A worker publishes its state with a Reporter:

	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	cfg := redisjob.DefaultConfig()
	cfg.Redis = rdb

	rep, _ := redisjob.NewReporter(cfg, "thumbnail-42")
	rep.Begin(ctx)
	rep.Progress(ctx, 0.5)
	rep.Complete(ctx, Thumbnail{Width: 320})

A consumer wraps a Loader in a progress.Publisher:

	l, _ := redisjob.NewLoader[Thumbnail](cfg, "thumbnail-42")
	pub := progress.New[Thumbnail](l)

# Key layout

Each job is one hash at "<prefix>:<job>" with the fields:

	progress   completed fraction, 0 to 1
	state      running, done or failed
	result     JSON encoded result (state done)
	error      failure reason (state failed)
	cancel     "1" once a consumer cancelled

Progress only moves forward: the Reporter drops regressions atomically with a
Lua script, and the Loader forwards a value only when it exceeds the last one
it delivered. A value of 1 is never delivered as progress; the load completes
when the state becomes done.

# Failure handling

A failed state completes the load with a *JobError. Redis timeouts and server
errors are retried on the next poll; after MaxConsecutiveErrors failures in a
row the load fails with the last *RedisError. A closed client or a malformed
progress field fails the load on the first read. The wrapped cause matches
errors.ErrTimeout, errors.ErrUnavailable or errors.ErrClosed from the common
errors package. Cancelling the loader stops polling and
sets the cancel field, which the worker checks with CancelRequested.
*/
package redisjob
