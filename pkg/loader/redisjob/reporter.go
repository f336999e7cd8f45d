package redisjob

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"

	lferrors "github.com/vnykmshr/loadflow/pkg/common/errors"
	"github.com/vnykmshr/loadflow/pkg/common/validation"
)

// Reporter is the worker side of a job: it publishes progress and the
// outcome into the job hash.
type Reporter struct {
	config Config
	job    string
	key    string

	progressScript *redis.Script
}

// NewReporter creates a Reporter for job.
func NewReporter(config Config, job string) (*Reporter, error) {
	if err := validateConfig(config, job); err != nil {
		return nil, err
	}
	config = applyConfigDefaults(config)

	return &Reporter{
		config:         config,
		job:            job,
		key:            Key(config.KeyPrefix, job),
		progressScript: redis.NewScript(luaProgress),
	}, nil
}

// Job returns the job id.
func (r *Reporter) Job() string {
	return r.job
}

// Begin resets the job hash to a running job at progress 0.
func (r *Reporter) Begin(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.config.RedisTimeout)
	defer cancel()

	_, err := r.config.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		pipe.HSet(ctx, r.key, map[string]interface{}{
			fieldState:    StateRunning,
			fieldProgress: "0",
		})
		pipe.Expire(ctx, r.key, r.config.KeyTTL)
		return nil
	})
	if err != nil {
		return &RedisError{"begin", err}
	}
	return nil
}

// Progress records p as the job's progress. Values below the stored
// progress, and any value once the job has finished, are ignored.
func (r *Reporter) Progress(ctx context.Context, p float64) error {
	if err := validation.ValidateProgress("redisjob", "progress", p); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.RedisTimeout)
	defer cancel()

	ttl := int64(r.config.KeyTTL.Seconds())
	if ttl < 1 {
		ttl = 1
	}
	err := r.progressScript.Run(ctx, r.config.Redis, []string{r.key},
		strconv.FormatFloat(p, 'f', -1, 64), ttl).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return &RedisError{"progress", err}
	}
	return nil
}

// Complete marks the job done and stores result as JSON.
func (r *Reporter) Complete(ctx context.Context, result interface{}) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return lferrors.NewOperationError("redisjob", "encode", err).WithContext("job " + r.job)
	}
	return r.finish(ctx, "complete", map[string]interface{}{
		fieldState:    StateDone,
		fieldProgress: "1",
		fieldResult:   string(payload),
	})
}

// Fail marks the job failed with reason.
func (r *Reporter) Fail(ctx context.Context, reason string) error {
	return r.finish(ctx, "fail", map[string]interface{}{
		fieldState: StateFailed,
		fieldError: reason,
	})
}

func (r *Reporter) finish(ctx context.Context, op string, fields map[string]interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, r.config.RedisTimeout)
	defer cancel()

	_, err := r.config.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.key, fields)
		pipe.Expire(ctx, r.key, r.config.KeyTTL)
		return nil
	})
	if err != nil {
		return &RedisError{op, err}
	}
	return nil
}

// CancelRequested reports whether a consumer asked the job to stop.
func (r *Reporter) CancelRequested(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.config.RedisTimeout)
	defer cancel()

	v, err := r.config.Redis.HGet(ctx, r.key, fieldCancel).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, &RedisError{"cancel_requested", err}
	}
	return v == "1", nil
}

// luaProgress stores ARGV[1] unless the job finished or the value regresses.
const luaProgress = `
local state = redis.call('HGET', KEYS[1], 'state')
if state == 'done' or state == 'failed' then
    return 0
end

local current = tonumber(redis.call('HGET', KEYS[1], 'progress') or '0')
local p = tonumber(ARGV[1])
if p < current then
    return 0
end

redis.call('HSET', KEYS[1], 'progress', ARGV[1], 'state', 'running')
redis.call('EXPIRE', KEYS[1], ARGV[2])
return 1
`
