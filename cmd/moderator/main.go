// The moderator consumes flagged-message events published by the relay and
// applies escalating bans to repeat offenders. It runs out of band so the
// relay's hot path never waits on moderation decisions.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/bytestudioinc/strangerchat/internal/ban"
	"github.com/bytestudioinc/strangerchat/internal/match"
	"github.com/bytestudioinc/strangerchat/internal/messaging"
)

// flagThreshold is the number of flagged messages inside flagWindow that
// earns a ban.
const (
	flagThreshold = 3
	flagWindow    = time.Hour
)

func main() {
	_ = godotenv.Load()

	log.Println("strangerchat moderator starting...")

	redisAddr := "localhost:6379"
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		redisAddr = v
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(ctx).Err(); err != nil {
		cancel()
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	cancel()

	natsConfig := messaging.DefaultNATSConfig()
	if v := os.Getenv("NATS_URL"); v != "" {
		natsConfig.URL = v
	}
	natsConfig.Name = "strangerchat-moderator"

	natsClient, err := messaging.NewNATSClient(natsConfig)
	if err != nil {
		log.Fatalf("failed to connect to NATS: %v", err)
	}

	banStore := ban.NewStore(rdb)

	err = natsClient.SubscribeFlagged(func(data []byte) {
		var fm match.FlaggedMessage
		if err := json.Unmarshal(data, &fm); err != nil {
			log.Printf("[moderator] failed to unmarshal flagged message: %v", err)
			return
		}

		log.Printf("[moderator] flagged user=%s room=%s reason=%s term=%q",
			fm.UserID, fm.RoomID, fm.Reason, fm.Term)

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		// Count flags per user in a rolling window; threshold earns a ban.
		key := "mod:flags:" + fm.UserID
		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("[moderator] flag count failed for %s: %v", fm.UserID, err)
			return
		}
		if count == 1 {
			if err := rdb.Expire(ctx, key, flagWindow).Err(); err != nil {
				log.Printf("[moderator] flag expire failed for %s: %v", fm.UserID, err)
			}
		}

		if count < flagThreshold {
			return
		}

		if err := rdb.Del(ctx, key).Err(); err != nil {
			log.Printf("[moderator] flag reset failed for %s: %v", fm.UserID, err)
		}
		dur, err := banStore.Ban(ctx, fm.UserID, "flagged_messages")
		if err != nil {
			log.Printf("[moderator] ban failed for %s: %v", fm.UserID, err)
			return
		}
		log.Printf("[moderator] banned user=%s for %s after %d flags", fm.UserID, dur, count)
	})
	if err != nil {
		log.Fatalf("failed to subscribe to flagged messages: %v", err)
	}

	log.Printf("strangerchat moderator running")
	log.Printf("  redis_addr: %s", redisAddr)
	log.Printf("  nats_url:   %s", natsConfig.URL)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("received signal %v, shutting down...", sig)

	natsClient.Close()
	rdb.Close()
}
