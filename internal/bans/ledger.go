package bans

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
)

const strikeKeyPrefix = "vgb"

var (
	// ErrUnavailable reports a Redis failure. Callers fail open on it: a
	// broken ledger must never take down legitimate connections.
	ErrUnavailable = errors.New("ban ledger backend unavailable")
)

// Ledger counts anti-cheat strikes per remote host in a fixed window, the
// same INCR + conditional EXPIRE shape as a rate limiter. A host at or over
// the strike limit is refused at connection open until its window expires.
//
// A nil Ledger is valid and always answers "not banned"; every method is
// nil-safe so the engine runs unchanged without Redis.
type Ledger struct {
	redis  *redis.Client
	limit  int
	window time.Duration
}

// NewLedger creates a ledger over the given Redis client. A nil client
// yields a nil ledger.
func NewLedger(redisClient *redis.Client, strikeLimit int, window time.Duration) *Ledger {
	if redisClient == nil {
		return nil
	}
	if strikeLimit <= 0 {
		strikeLimit = 1
	}
	if window <= 0 {
		window = time.Hour
	}
	return &Ledger{redis: redisClient, limit: strikeLimit, window: window}
}

func (l *Ledger) key(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	return strikeKeyPrefix + ":" + host
}

// Banned reports whether the remote address has reached the strike limit.
func (l *Ledger) Banned(ctx context.Context, addr string) (bool, error) {
	if l == nil || addr == "" {
		return false, nil
	}

	count, err := l.redis.Get(ctx, l.key(addr)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return count >= int64(l.limit), nil
}

// RecordStrike counts one violation against the remote address and reports
// whether the address is now banned. The window starts at the first strike.
func (l *Ledger) RecordStrike(ctx context.Context, addr string) (bool, error) {
	if l == nil || addr == "" {
		return false, nil
	}

	key := l.key(addr)
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.window).Err(); err != nil {
			return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return count >= int64(l.limit), nil
}

// Clear forgets all strikes against the remote address.
func (l *Ledger) Clear(ctx context.Context, addr string) error {
	if l == nil || addr == "" {
		return nil
	}
	if err := l.redis.Del(ctx, l.key(addr)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
