// Package cache keeps the scored leaderboard between writes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gtourv/PLprediction/internal/league"
)

const (
	leaderboardKey = "plprediction:leaderboard"
	generationKey  = "plprediction:leaderboard:generation"
)

// Leaderboard caches the last computed leaderboard.
//
// Every Invalidate bumps a generation counter. A reader takes the generation
// before loading from the store and hands it back to Set, which drops the
// board if a write landed in between.
type Leaderboard interface {
	// Get returns the cached leaderboard and whether there was one.
	Get(ctx context.Context) (league.Leaderboard, bool, error)
	Generation(ctx context.Context) (int64, error)
	// Set stores board if the generation is still gen.
	Set(ctx context.Context, gen int64, board league.Leaderboard) error
	// Invalidate drops the cached leaderboard. Called after every write.
	Invalidate(ctx context.Context) error
}

// Nop never caches anything.
type Nop struct{}

func (Nop) Get(context.Context) (league.Leaderboard, bool, error) {
	return league.Leaderboard{}, false, nil
}
func (Nop) Generation(context.Context) (int64, error)            { return 0, nil }
func (Nop) Set(context.Context, int64, league.Leaderboard) error { return nil }
func (Nop) Invalidate(context.Context) error                     { return nil }

// Redis stores the leaderboard as JSON under a single key.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, opts Options) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
		PoolSize: 20,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", opts.Addr, err)
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Redis{rdb: rdb, ttl: ttl}, nil
}

func (r *Redis) Get(ctx context.Context) (league.Leaderboard, bool, error) {
	raw, err := r.rdb.Get(ctx, leaderboardKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return league.Leaderboard{}, false, nil
	}
	if err != nil {
		return league.Leaderboard{}, false, fmt.Errorf("reading cached leaderboard: %w", err)
	}

	var board league.Leaderboard
	if err := json.Unmarshal(raw, &board); err != nil {
		return league.Leaderboard{}, false, fmt.Errorf("decoding cached leaderboard: %w", err)
	}
	return board, true, nil
}

func (r *Redis) Generation(ctx context.Context) (int64, error) {
	gen, err := r.rdb.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading cache generation: %w", err)
	}
	return gen, nil
}

func (r *Redis) Set(ctx context.Context, gen int64, board league.Leaderboard) error {
	raw, err := json.Marshal(board)
	if err != nil {
		return fmt.Errorf("encoding leaderboard: %w", err)
	}

	err = r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, leaderboardKey, raw, r.ttl)
			return nil
		})
		return err
	}, generationKey)
	// an Invalidate landed between the check and the write
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("caching leaderboard: %w", err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, leaderboardKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidating cached leaderboard: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
