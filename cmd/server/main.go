package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/bytestudioinc/strangerchat/internal/ban"
	"github.com/bytestudioinc/strangerchat/internal/match"
	"github.com/bytestudioinc/strangerchat/internal/messaging"
	"github.com/bytestudioinc/strangerchat/internal/metrics"
	"github.com/bytestudioinc/strangerchat/internal/moderation"
	"github.com/bytestudioinc/strangerchat/internal/protocol"
	"github.com/bytestudioinc/strangerchat/internal/ratelimit"
	"github.com/bytestudioinc/strangerchat/internal/report"
	"github.com/bytestudioinc/strangerchat/internal/ws"
)

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envDur(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// sender adapts the WebSocket server to the matchmaking core's outbound port.
type sender struct {
	server *ws.Server
}

func (s *sender) Send(connID string, data []byte) error {
	return s.server.SendMessage(connID, data)
}

func main() {
	// .env is a convenience for local runs; production sets real env vars.
	_ = godotenv.Load()

	config := ws.DefaultServerConfig()
	config.ListenAddr = envStr("LISTEN_ADDR", config.ListenAddr)
	config.WorkerPoolSize = envInt("WORKER_POOL_SIZE", config.WorkerPoolSize)
	config.MaxConnections = envInt("MAX_CONNECTIONS", config.MaxConnections)
	config.ReadTimeout = envDur("READ_TIMEOUT", config.ReadTimeout)
	config.WriteTimeout = envDur("WRITE_TIMEOUT", config.WriteTimeout)

	matchConfig := match.DefaultConfig()
	matchConfig.SearchTimeout = envDur("MATCH_TIMEOUT", matchConfig.SearchTimeout)
	matchConfig.StatusInterval = envDur("STATUS_INTERVAL", matchConfig.StatusInterval)

	readyPayload := protocol.ServerReadyPayload{
		State:          "ready",
		Version:        envStr("APP_VERSION", "1.0.0"),
		Reward:         envInt("REWARD", 0),
		PreferenceCost: envInt("PREFERENCE_COST", 0),
		Maintenance:    envStr("MAINTENANCE", "no"),
		URL:            os.Getenv("STORE_URL"),
	}

	// --- Redis (rate limits + bans); the relay runs without it ---
	var (
		limiter  *ratelimit.Limiter
		banStore *ban.Store
	)
	redisAddr := envStr("REDIS_ADDR", "localhost:6379")
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Printf("redis unavailable at %s, rate limits and bans disabled: %v", redisAddr, err)
		rdb = nil
	} else {
		limiter = ratelimit.NewLimiter(rdb)
		banStore = ban.NewStore(rdb)
	}
	pingCancel()

	// --- NATS (flagged-message firehose); optional ---
	var natsClient *messaging.NATSClient
	natsConfig := messaging.DefaultNATSConfig()
	natsConfig.URL = envStr("NATS_URL", natsConfig.URL)
	natsConfig.Name = "strangerchat-server"
	if nc, err := messaging.NewNATSClient(natsConfig); err != nil {
		log.Printf("nats unavailable at %s, flagged messages stay local: %v", natsConfig.URL, err)
	} else {
		natsClient = nc
	}

	// --- Postgres (abuse reports); optional ---
	var reportStore *report.Store
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		rs, err := report.NewStore(dbURL)
		if err != nil {
			log.Printf("postgres unavailable, report persistence disabled: %v", err)
		} else {
			reportStore = rs
		}
	}

	filter := moderation.NewFilter()

	log.Printf("strangerchat server starting")
	log.Printf("  listen_addr:     %s", config.ListenAddr)
	log.Printf("  worker_pool:     %d", config.WorkerPoolSize)
	log.Printf("  max_connections: %d", config.MaxConnections)
	log.Printf("  match_timeout:   %s", matchConfig.SearchTimeout)
	log.Printf("  status_interval: %s", matchConfig.StatusInterval)
	log.Printf("  redis_addr:      %s (enabled=%v)", redisAddr, rdb != nil)
	log.Printf("  nats_url:        %s (enabled=%v)", natsConfig.URL, natsClient != nil)
	log.Printf("  reports:         enabled=%v", reportStore != nil)

	// The sender is filled in once the server exists; nothing is delivered
	// before Start anyway.
	var server *ws.Server
	svcSender := &sender{}
	svc := match.NewService(matchConfig, svcSender)
	svc.SetScreener(filter)
	if natsClient != nil {
		svc.SetOnFlagged(func(fm match.FlaggedMessage) {
			data, err := json.Marshal(fm)
			if err != nil {
				return
			}
			if err := natsClient.PublishFlagged(data); err != nil {
				log.Printf("publish flagged message failed: %v", err)
			}
		})
	}

	dispatcher := ws.NewMessageDispatcher()

	sendError := func(conn *ws.Connection, code, message string) {
		data, err := protocol.NewServerMessage(protocol.TypeError, protocol.ErrorPayload{
			Code: code, Message: message,
		})
		if err != nil {
			return
		}
		_ = conn.WriteMessage(data)
	}

	// -----------------------------------------------------------------------
	// find — search for a partner
	// -----------------------------------------------------------------------
	dispatcher.Register(protocol.TypeFind, func(conn *ws.Connection, msg interface{}) {
		findMsg, ok := msg.(protocol.FindPayload)
		if !ok {
			return
		}
		userID := findMsg.UserID
		if userID == "" {
			userID = conn.ID
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if banStore != nil {
			banned, left, err := banStore.IsBanned(ctx, userID)
			if err != nil {
				log.Printf("ban check failed for %s: %v", userID, err)
			}
			if banned {
				data, _ := protocol.NewServerMessage(protocol.TypeStatus, protocol.StatusPayload{
					State:   protocol.StateBanned,
					Message: fmt.Sprintf("You are temporarily banned. Try again in %s.", left.Round(time.Minute)),
				})
				_ = conn.WriteMessage(data)
				return
			}
		}

		if limiter != nil {
			allowed, err := limiter.AllowFind(ctx, userID)
			if err != nil {
				log.Printf("find rate limit check failed for %s: %v", userID, err)
			}
			if !allowed {
				sendError(conn, "rate_limited", "too many searches, slow down")
				return
			}
		}

		findMsg.Name = filter.ScreenName(findMsg.Name)
		svc.Find(conn.ID, findMsg)
	})

	// -----------------------------------------------------------------------
	// cancel_search — leave the waiting pool
	// -----------------------------------------------------------------------
	dispatcher.Register(protocol.TypeCancelSearch, func(conn *ws.Connection, msg interface{}) {
		svc.Cancel(conn.ID)
	})

	// -----------------------------------------------------------------------
	// chat_message — relay to the room partner
	// -----------------------------------------------------------------------
	dispatcher.Register(protocol.TypeChatMessage, func(conn *ws.Connection, msg interface{}) {
		chatMsg, ok := msg.(protocol.ChatMessagePayload)
		if !ok {
			return
		}

		if limiter != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			allowed, err := limiter.AllowChat(ctx, conn.ID)
			cancel()
			if err != nil {
				log.Printf("chat rate limit check failed for %s: %v", conn.ID, err)
			}
			if !allowed {
				sendError(conn, "rate_limited", "too many messages, slow down")
				return
			}
		}

		svc.Relay(conn.ID, chatMsg)
	})

	// -----------------------------------------------------------------------
	// leave_chat — voluntary departure
	// -----------------------------------------------------------------------
	dispatcher.Register(protocol.TypeLeaveChat, func(conn *ws.Connection, msg interface{}) {
		leaveMsg, ok := msg.(protocol.LeaveChatPayload)
		if !ok {
			return
		}
		roomID := leaveMsg.RoomID
		if roomID == "" {
			// Clients may omit the room; resolve it from membership.
			if id, ok := svc.RoomFor(conn.ID); ok {
				roomID = id
			}
		}
		svc.Leave(conn.ID, roomID)
	})

	// -----------------------------------------------------------------------
	// report — file an abuse report against the partner
	// -----------------------------------------------------------------------
	dispatcher.Register(protocol.TypeReport, func(conn *ws.Connection, msg interface{}) {
		reportMsg, ok := msg.(protocol.ReportPayload)
		if !ok {
			return
		}
		roomID := reportMsg.RoomID
		if roomID == "" {
			if id, ok := svc.RoomFor(conn.ID); ok {
				roomID = id
			}
		}
		if !report.IsValidReason(reportMsg.Reason) {
			sendError(conn, "invalid_report", "unknown report reason")
			return
		}

		reporter, partner, recent, ok := svc.ReportContext(conn.ID, roomID)
		if !ok {
			sendError(conn, "invalid_report", "not a member of that room")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		if reportStore != nil {
			msgs := make([]report.Message, 0, len(recent))
			for _, m := range recent {
				msgs = append(msgs, report.Message{From: m.From, Text: m.Text, Ts: m.Ts})
			}
			if _, err := reportStore.Create(ctx, report.Report{
				ReporterID: reporter.UserID,
				ReportedID: partner.UserID,
				RoomID:     roomID,
				Reason:     reportMsg.Reason,
				Messages:   msgs,
			}); err != nil {
				log.Printf("report persist failed: %v", err)
			}
		}

		if banStore != nil {
			bannedNow, err := banStore.ReportAndCheck(ctx, partner.UserID)
			if err != nil {
				log.Printf("report ban check failed: %v", err)
			}
			if bannedNow {
				log.Printf("user %s auto-banned after report threshold", partner.UserID)
			}
		}

		data, _ := protocol.NewServerMessage(protocol.TypeReportAck, protocol.ReportAckPayload{
			Status:  "received",
			Message: "Thanks, our team will review this chat.",
		})
		_ = conn.WriteMessage(data)
		log.Printf("report filed by %s against %s in room %s (%s)",
			reporter.UserID, partner.UserID, roomID, reportMsg.Reason)
	})

	server = ws.NewServer(config, dispatcher.Dispatch)
	dispatcher.SetServer(server)
	svcSender.server = server

	server.Handle("/metrics", metrics.Handler())

	if limiter != nil {
		server.SetAcceptCheck(func(r *http.Request) bool {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			allowed, err := limiter.AllowConnect(ctx, host)
			if err != nil {
				log.Printf("connect rate limit check failed for %s: %v", host, err)
			}
			return allowed
		})
	}

	server.SetOnConnect(func(conn *ws.Connection) {
		data, err := protocol.NewServerMessage(protocol.TypeServerReady, readyPayload)
		if err != nil {
			log.Printf("failed to build server_ready for %s: %v", conn.ID, err)
			return
		}
		if err := conn.WriteMessage(data); err != nil {
			log.Printf("failed to send server_ready to %s: %v", conn.ID, err)
		}
	})

	server.SetOnDisconnect(func(connID string) {
		svc.DisconnectCleanup(connID)
	})

	// Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("received signal %v, initiating graceful shutdown...", sig)
		if natsClient != nil {
			natsClient.Close()
		}
		if err := server.Shutdown(); err != nil {
			log.Printf("shutdown error: %v", err)
		}
		if reportStore != nil {
			_ = reportStore.Close()
		}
		if rdb != nil {
			_ = rdb.Close()
		}
		os.Exit(0)
	}()

	if err := server.Start(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
