package ban

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// newTestStore connects to a local Redis and clears test keys. Tests are
// skipped when Redis is unavailable.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}

	clear := func() {
		iter := client.Scan(ctx, 0, "ban:*:test_*", 100).Iterator()
		for iter.Next(ctx) {
			client.Del(ctx, iter.Val())
		}
	}
	clear()
	t.Cleanup(func() {
		clear()
		client.Close()
	})
	return NewStore(client)
}

func TestIsBanned_NotBanned(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	banned, left, err := store.IsBanned(ctx, "test_clean")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if banned {
		t.Errorf("expected not banned, got banned (left=%v)", left)
	}
}

func TestBan_FirstOffense15Min(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	dur, err := store.Ban(ctx, "test_first", "spam")
	if err != nil {
		t.Fatalf("Ban() error: %v", err)
	}
	if dur != 15*time.Minute {
		t.Errorf("first offense: expected 15m, got %v", dur)
	}

	banned, left, err := store.IsBanned(ctx, "test_first")
	if err != nil {
		t.Fatalf("IsBanned() error: %v", err)
	}
	if !banned {
		t.Fatal("expected banned after Ban()")
	}
	if left <= 0 || left > 15*time.Minute {
		t.Errorf("expected remaining in (0,15m], got %v", left)
	}
}

func TestBan_Escalates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	want := []time.Duration{15 * time.Minute, time.Hour, 24 * time.Hour, 24 * time.Hour}
	for i, expected := range want {
		dur, err := store.Ban(ctx, "test_repeat", "spam")
		if err != nil {
			t.Fatalf("Ban() #%d error: %v", i+1, err)
		}
		if dur != expected {
			t.Errorf("offense %d: expected %v, got %v", i+1, expected, dur)
		}
	}
}

func TestReportAndCheck_BelowThreshold(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 1; i < ReportThreshold; i++ {
		banned, err := store.ReportAndCheck(ctx, "test_below")
		if err != nil {
			t.Fatalf("ReportAndCheck() #%d error: %v", i, err)
		}
		if banned {
			t.Fatalf("banned after %d reports, threshold is %d", i, ReportThreshold)
		}
	}

	if banned, _, _ := store.IsBanned(ctx, "test_below"); banned {
		t.Error("user must not be banned below the threshold")
	}
}

func TestReportAndCheck_AutoBanAtThreshold(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var banned bool
	var err error
	for i := 0; i < ReportThreshold; i++ {
		banned, err = store.ReportAndCheck(ctx, "test_autoban")
		if err != nil {
			t.Fatalf("ReportAndCheck() error: %v", err)
		}
	}
	if !banned {
		t.Fatalf("expected auto-ban at %d reports", ReportThreshold)
	}

	isBanned, left, err := store.IsBanned(ctx, "test_autoban")
	if err != nil {
		t.Fatalf("IsBanned() error: %v", err)
	}
	if !isBanned || left <= 0 {
		t.Errorf("expected active ban, got banned=%v left=%v", isBanned, left)
	}
}

func TestReportAndCheck_WindowResetsAfterBan(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < ReportThreshold; i++ {
		store.ReportAndCheck(ctx, "test_reset")
	}

	// The counter was consumed by the ban; the next report starts over.
	banned, err := store.ReportAndCheck(ctx, "test_reset")
	if err != nil {
		t.Fatalf("ReportAndCheck() error: %v", err)
	}
	if banned {
		t.Error("a single report after a ban must not re-trigger")
	}
}
