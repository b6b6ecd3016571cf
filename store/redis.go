package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sak85/API-Automation-POC/report"
)

// RunListKey is the Redis list holding run IDs, most recent first.
const RunListKey = KeyPrefix + ":runs"

type redisCommands interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// Redis writes each summary as a hash under "harness:run:<runId>" and pushes the run ID onto
// the "harness:runs" list.
type Redis struct {
	client redisCommands
	dsn    string
	close  func() error
}

// OpenRedis connects using a URL such as "redis://localhost:6379/0".
func OpenRedis(dsn string) (*Redis, error) {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis DSN: %w", err)
	}
	client := redis.NewClient(opts)
	return &Redis{client: client, dsn: fmt.Sprintf("redis://%s", opts.Addr), close: client.Close}, nil
}

func (r *Redis) DSN() string { return r.dsn }

func (r *Redis) Publish(ctx context.Context, summary report.Summary) error {
	fields := map[string]string{
		"mode":       summary.Mode,
		"startedAt":  summary.StartedAt.Format(time.RFC3339Nano),
		"finishedAt": summary.FinishedAt.Format(time.RFC3339Nano),
		"passed":     strconv.Itoa(summary.Passed),
		"failed":     strconv.Itoa(summary.Failed),
		"skipped":    strconv.Itoa(summary.Skipped),
		"summary":    string(summary.JSON()),
	}
	if _, err := r.client.HSet(ctx, runKey(summary.RunID), fields).Result(); err != nil {
		return err
	}
	_, err := r.client.LPush(ctx, RunListKey, summary.RunID).Result()
	return err
}

func (r *Redis) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}
