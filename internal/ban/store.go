// Package ban tracks temporary bans and abuse-report counts in Redis.
//
// Bans escalate with repeat offenses: 15 minutes, then 1 hour, then 24 hours.
// Report counts roll over a 24 hour window; three reports inside the window
// trigger an automatic ban. All lookups fail open so a Redis outage never
// locks users out of the service.
package ban

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Escalating ban durations indexed by prior offense count.
var banDurations = []time.Duration{
	15 * time.Minute,
	time.Hour,
	24 * time.Hour,
}

// ReportThreshold is the number of reports inside ReportWindow that triggers
// an automatic ban.
const (
	ReportThreshold = 3
	ReportWindow    = 24 * time.Hour
)

// Store persists ban state keyed by user ID.
type Store struct {
	rdb *redis.Client
}

// NewStore returns a ban store using the given Redis client.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func banKey(userID string) string     { return "ban:active:" + userID }
func offenseKey(userID string) string { return "ban:offenses:" + userID }
func reportKey(userID string) string  { return "ban:reports:" + userID }

// IsBanned reports whether the user currently has an active ban and, if so,
// how long it has left. Redis errors are returned with banned=false.
func (s *Store) IsBanned(ctx context.Context, userID string) (bool, time.Duration, error) {
	ttl, err := s.rdb.TTL(ctx, banKey(userID)).Result()
	if err != nil {
		return false, 0, fmt.Errorf("ban ttl: %w", err)
	}
	// -2 means no key, -1 means no expiry. Bans always carry an expiry so
	// anything non-positive counts as not banned.
	if ttl <= 0 {
		return false, 0, nil
	}
	return true, ttl, nil
}

// Ban applies a ban to the user with a duration escalated by their offense
// history and returns the applied duration.
func (s *Store) Ban(ctx context.Context, userID, reason string) (time.Duration, error) {
	offenses, err := s.rdb.Incr(ctx, offenseKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("ban offenses incr: %w", err)
	}

	idx := int(offenses) - 1
	if idx >= len(banDurations) {
		idx = len(banDurations) - 1
	}
	dur := banDurations[idx]

	if err := s.rdb.Set(ctx, banKey(userID), reason, dur).Err(); err != nil {
		return 0, fmt.Errorf("ban set: %w", err)
	}
	return dur, nil
}

// ReportAndCheck records one abuse report against the user and auto-bans them
// once the rolling report count reaches the threshold. It returns whether a
// ban was applied by this call.
func (s *Store) ReportAndCheck(ctx context.Context, userID string) (bool, error) {
	key := reportKey(userID)

	count, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("ban reports incr: %w", err)
	}
	if count == 1 {
		if err := s.rdb.Expire(ctx, key, ReportWindow).Err(); err != nil {
			return false, fmt.Errorf("ban reports expire: %w", err)
		}
	}

	if count < ReportThreshold {
		return false, nil
	}

	// Reset the window so the next threshold needs fresh reports.
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return false, fmt.Errorf("ban reports del: %w", err)
	}
	if _, err := s.Ban(ctx, userID, "report_threshold"); err != nil {
		return false, err
	}
	return true, nil
}
