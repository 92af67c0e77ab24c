// Package ratelimit implements Redis-backed fixed-window rate limiting for
// client operations. The limiter fails open: if Redis is unreachable the
// operation is allowed and the error is surfaced to the caller for logging.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rule defines a fixed-window limit for one kind of action.
type Rule struct {
	// Max is the number of actions allowed per window.
	Max int64
	// Window is the length of the fixed window.
	Window time.Duration
}

// Default rules. Search starts are cheap but arm timers; chat messages are
// relayed to a partner so floods hurt a real person.
var (
	RuleFind = Rule{Max: 10, Window: time.Minute}
	RuleChat = Rule{Max: 5, Window: 10 * time.Second}
	RuleConn = Rule{Max: 20, Window: time.Minute}
)

// Limiter counts actions per key in Redis using INCR with a window TTL.
type Limiter struct {
	rdb    *redis.Client
	prefix string
}

// NewLimiter returns a limiter using the given Redis client.
func NewLimiter(rdb *redis.Client) *Limiter {
	return &Limiter{rdb: rdb, prefix: "rl"}
}

// Allow records one action for key under the given rule and reports whether
// the action is within the limit. On Redis errors it returns allowed=true
// along with the error so callers can log and continue.
func (l *Limiter) Allow(ctx context.Context, action, key string, rule Rule) (bool, error) {
	rkey := fmt.Sprintf("%s:%s:%s", l.prefix, action, key)

	count, err := l.rdb.Incr(ctx, rkey).Result()
	if err != nil {
		return true, fmt.Errorf("ratelimit incr: %w", err)
	}

	// First hit in the window sets the expiry. If the EXPIRE is lost the key
	// leaks for at most one window after Redis recovers.
	if count == 1 {
		if err := l.rdb.Expire(ctx, rkey, rule.Window).Err(); err != nil {
			return true, fmt.Errorf("ratelimit expire: %w", err)
		}
	}

	return count <= rule.Max, nil
}

// AllowFind reports whether the user may start another partner search.
func (l *Limiter) AllowFind(ctx context.Context, userID string) (bool, error) {
	return l.Allow(ctx, "find", userID, RuleFind)
}

// AllowChat reports whether the user may send another chat message.
func (l *Limiter) AllowChat(ctx context.Context, userID string) (bool, error) {
	return l.Allow(ctx, "chat", userID, RuleChat)
}

// AllowConnect reports whether the remote address may open another connection.
func (l *Limiter) AllowConnect(ctx context.Context, addr string) (bool, error) {
	return l.Allow(ctx, "conn", addr, RuleConn)
}
