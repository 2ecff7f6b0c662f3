package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	StatusUp       = "up"
	StatusDown     = "down"
	StatusDisabled = "disabled"
)

var pingRedisFn = func(ctx context.Context, rdb *redis.Client) error { return rdb.Ping(ctx).Err() }

// Status reports each optional store for the health route. A store that is
// down never fails the service: the catalogue falls back to JSON and the
// track cache and stream hub run locally.
func Status(ctx context.Context, pool *pgxpool.Pool, rdb *redis.Client) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	out := map[string]string{"postgres": StatusDisabled, "redis": StatusDisabled}
	if pool != nil {
		out["postgres"] = probe(pingPoolFn(ctx, pool))
	}
	if rdb != nil {
		out["redis"] = probe(pingRedisFn(ctx, rdb))
	}
	return out
}

func probe(err error) string {
	if err != nil {
		return StatusDown
	}
	return StatusUp
}
