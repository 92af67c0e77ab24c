// Package match implements the matchmaking core: the waiting pool of
// searching clients, the compatibility/priority pairing rule, the per-entry
// search timeout, and the lifecycle of two-party chat rooms. All shared state
// is owned by Service and mutated behind a single mutex; timer callbacks
// re-enter through the same mutex and are not a privileged path.
package match

import (
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/bytestudioinc/strangerchat/internal/chat"
	"github.com/bytestudioinc/strangerchat/internal/metrics"
	"github.com/bytestudioinc/strangerchat/internal/protocol"
)

// Sender delivers an encoded frame to a single connection. Implementations
// must treat delivery to a vanished connection as a no-op; the core never
// retries a send.
type Sender interface {
	Send(connID string, data []byte) error
}

// Screener checks relayed message text before delivery. A blocked result
// suppresses delivery to the partner.
type Screener interface {
	Screen(text string) (blocked bool, reason string, term string)
}

// FlaggedMessage describes a relayed message that the screener blocked. It is
// handed to the OnFlagged hook for out-of-band moderation.
type FlaggedMessage struct {
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId"`
	RoomID       string `json:"roomId"`
	Reason       string `json:"reason"`
	Term         string `json:"term"`
	Text         string `json:"text"`
	Ts           int64  `json:"ts"`
}

// Config holds tunable matchmaking parameters.
type Config struct {
	SearchTimeout  time.Duration // how long an unmatched client waits before expiry
	StatusInterval time.Duration // rotating "searching" message period; 0 disables
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		SearchTimeout:  30 * time.Second,
		StatusInterval: 5 * time.Second,
	}
}

// Service is the matchmaking core. One instance owns the waiting pool, the
// room registry, and every pending search timer.
type Service struct {
	cfg    Config
	sender Sender

	mu         sync.Mutex
	pool       *waitingPool
	rooms      map[string]*Room
	memberRoom map[string]string // connection ID -> room ID, at most one room per connection

	buffers *chat.MessageBuffer // recent messages per room, kept for abuse reports

	screener  Screener
	onFlagged func(FlaggedMessage)
}

// NewService creates a matchmaking service that emits events through sender.
func NewService(cfg Config, sender Sender) *Service {
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = DefaultConfig().SearchTimeout
	}
	return &Service{
		cfg:        cfg,
		sender:     sender,
		pool:       newWaitingPool(),
		rooms:      make(map[string]*Room),
		memberRoom: make(map[string]string),
		buffers:    chat.NewMessageBuffer(),
	}
}

// SetScreener installs a content screener applied to every relayed message.
func (s *Service) SetScreener(sc Screener) {
	s.screener = sc
}

// SetOnFlagged installs a hook invoked (on its own goroutine) whenever the
// screener blocks a message.
func (s *Service) SetOnFlagged(fn func(FlaggedMessage)) {
	s.onFlagged = fn
}

// ---------------------------------------------------------------------------
// Inbound event handlers
// ---------------------------------------------------------------------------

// Find handles a search request. If a compatible partner is waiting, both
// clients are paired into a fresh room and notified; otherwise the candidate
// joins the waiting pool with a search timeout armed. A find from a client
// already in the pool fully retires the previous entry (timer included)
// before the new search runs, so an entry never has two live timers.
func (s *Service) Find(connID string, req protocol.FindPayload) {
	profile := NewProfile(connID, req)

	s.mu.Lock()

	if roomID, ok := s.memberRoom[connID]; ok {
		s.mu.Unlock()
		log.Printf("match: find from %s ignored, already in room %s", connID, roomID)
		s.sendError(connID, "already_chatting", "finish or leave the current chat first")
		return
	}

	if prev := s.pool.remove(connID); prev != nil {
		retireEntry(prev)
	}

	partner := s.pool.findPartner(profile)
	if partner == nil {
		entry := &poolEntry{
			profile:    profile,
			enqueuedAt: time.Now(),
		}
		entry.timeout = time.AfterFunc(s.cfg.SearchTimeout, func() {
			s.searchTimeout(entry)
		})
		if s.cfg.StatusInterval > 0 {
			entry.rotateDone = make(chan struct{})
			s.startRotator(entry)
		}
		flavor := retryPool(profile.Preference)
		entry.msgIndex = 1
		s.pool.add(entry)
		metrics.WaitingPoolSize.Set(float64(s.pool.len()))
		s.mu.Unlock()

		s.sendStatus(connID, protocol.StatusPayload{
			State:   protocol.StateSearching,
			Message: flavor[0],
		})
		log.Printf("match: %s searching gender=%s pref=%s (pool=%d)",
			connID, profile.Gender, profile.Preference, s.PoolSize())
		return
	}

	// Match found: retire the partner's pool entry before the room exists so
	// the no-pool-and-room invariant holds at every step.
	s.pool.remove(partner.profile.ConnectionID)
	retireEntry(partner)

	room := newRoom(profile, partner.profile)
	s.rooms[room.ID] = room
	s.memberRoom[profile.ConnectionID] = room.ID
	s.memberRoom[partner.profile.ConnectionID] = room.ID

	tier := "fallback"
	if profile.Preference.Specific() && partner.profile.Preference.Specific() {
		tier = "specific"
	}
	metrics.WaitingPoolSize.Set(float64(s.pool.len()))
	metrics.ActiveRooms.Set(float64(len(s.rooms)))
	metrics.MatchesTotal.WithLabelValues(tier).Inc()
	metrics.MatchWaitSeconds.Observe(time.Since(partner.enqueuedAt).Seconds())
	s.mu.Unlock()

	s.sendStatus(profile.ConnectionID, protocol.StatusPayload{
		State:   protocol.StateMatched,
		RoomID:  room.ID,
		Partner: partner.profile.Safe(),
	})
	s.sendStatus(partner.profile.ConnectionID, protocol.StatusPayload{
		State:   protocol.StateMatched,
		RoomID:  room.ID,
		Partner: profile.Safe(),
	})
	log.Printf("match: paired %s + %s in room %s (%s)",
		profile.ConnectionID, partner.profile.ConnectionID, room.ID, tier)
}

// Cancel removes the caller from the waiting pool and acknowledges either
// way, mirroring the behavior clients expect when no search is active.
func (s *Service) Cancel(connID string) {
	s.mu.Lock()
	entry := s.pool.remove(connID)
	if entry != nil {
		retireEntry(entry)
		metrics.WaitingPoolSize.Set(float64(s.pool.len()))
	}
	s.mu.Unlock()

	msg := "No active search."
	if entry != nil {
		msg = "Search cancelled."
		log.Printf("match: search cancelled by %s", connID)
	}
	s.sendStatus(connID, protocol.StatusPayload{
		State:   protocol.StateCancelled,
		Message: msg,
	})
}

// Relay validates and delivers a chat message to the sender's room partner.
// The sender already has its own message, so nothing is echoed back. Messages
// to rooms the sender is not a member of are dropped and logged, never
// delivered.
func (s *Service) Relay(connID string, msg protocol.ChatMessagePayload) {
	if msg.RoomID == "" || msg.Message == "" || msg.Kind == "" {
		log.Printf("match: invalid chat_message from %s (missing fields)", connID)
		s.sendError(connID, "invalid_message", "roomId, message and type are required")
		return
	}
	if err := chat.ValidateMessage(msg.Message); err != nil {
		s.sendError(connID, "invalid_message", err.Error())
		return
	}

	s.mu.Lock()
	room := s.rooms[msg.RoomID]
	if room == nil || !room.Has(connID) {
		s.mu.Unlock()
		metrics.MessagesTotal.WithLabelValues("rejected").Inc()
		log.Printf("match: %s tried to send to room %s without membership", connID, msg.RoomID)
		return
	}
	sender := room.Member(connID)
	partner := room.Partner(connID)

	if s.screener != nil {
		if blocked, reason, term := s.screener.Screen(msg.Message); blocked {
			s.mu.Unlock()
			metrics.MessagesTotal.WithLabelValues("blocked").Inc()
			s.sendError(connID, "message_blocked", "message rejected: "+reason)
			if s.onFlagged != nil {
				go s.onFlagged(FlaggedMessage{
					ConnectionID: connID,
					UserID:       sender.UserID,
					RoomID:       room.ID,
					Reason:       reason,
					Term:         term,
					Text:         msg.Message,
					Ts:           time.Now().Unix(),
				})
			}
			return
		}
	}

	s.buffers.Add(room.ID, chat.BufferedMessage{
		From: connID,
		Text: msg.Message,
		Ts:   time.Now().Unix(),
	})
	s.mu.Unlock()

	metrics.MessagesTotal.WithLabelValues("relayed").Inc()
	s.sendChat(partner.ConnectionID, protocol.ChatResponsePayload{
		Status:  protocol.ChatStatusChatting,
		RoomID:  room.ID,
		From:    connID,
		Name:    msg.Name,
		Gender:  msg.Gender,
		Kind:    msg.Kind,
		Message: msg.Message,
		Time:    msg.Time,
	})
}

// Leave handles a voluntary departure. The remaining member is told the
// partner left and the room is destroyed entirely.
func (s *Service) Leave(connID string, roomID string) {
	s.mu.Lock()
	room := s.rooms[roomID]
	if room == nil || !room.Has(connID) {
		s.mu.Unlock()
		log.Printf("match: leave_chat from %s ignored, invalid room %s", connID, roomID)
		return
	}
	partner := room.Partner(connID)
	s.teardownLocked(room)
	s.mu.Unlock()

	s.sendChat(partner.ConnectionID, protocol.ChatResponsePayload{
		Status:  protocol.ChatStatusPartnerLeft,
		RoomID:  roomID,
		Message: "Your partner left the chat.",
	})
	log.Printf("match: %s left room %s", connID, roomID)
}

// DisconnectCleanup evicts a vanished connection from the waiting pool and,
// if it was chatting, tears the room down with a partner_disconnected
// notification so the remaining client can distinguish involuntary departure
// from a voluntary leave.
func (s *Service) DisconnectCleanup(connID string) {
	s.mu.Lock()
	if entry := s.pool.remove(connID); entry != nil {
		retireEntry(entry)
		metrics.WaitingPoolSize.Set(float64(s.pool.len()))
	}

	var partner Profile
	var roomID string
	if id, ok := s.memberRoom[connID]; ok {
		room := s.rooms[id]
		partner = room.Partner(connID)
		roomID = room.ID
		s.teardownLocked(room)
	}
	s.mu.Unlock()

	if roomID != "" {
		s.sendChat(partner.ConnectionID, protocol.ChatResponsePayload{
			Status:  protocol.ChatStatusPartnerDisconnected,
			RoomID:  roomID,
			Message: "Your partner disconnected.",
		})
		log.Printf("match: notified %s about %s disconnecting from room %s",
			partner.ConnectionID, connID, roomID)
	}
}

// ---------------------------------------------------------------------------
// Timer paths
// ---------------------------------------------------------------------------

// searchTimeout fires when a pool entry's wait expires. A fire that lost the
// race with any removal path is a no-op: the entry pointer must still be the
// one registered in the pool.
func (s *Service) searchTimeout(entry *poolEntry) {
	connID := entry.profile.ConnectionID

	s.mu.Lock()
	if s.pool.get(connID) != entry {
		s.mu.Unlock()
		return
	}
	s.pool.remove(connID)
	if entry.rotateDone != nil {
		close(entry.rotateDone)
	}
	metrics.WaitingPoolSize.Set(float64(s.pool.len()))
	metrics.SearchTimeoutsTotal.Inc()
	s.mu.Unlock()

	flavor := retryPool(entry.profile.Preference)
	msg := flavor[rand.Intn(len(flavor))]
	s.sendStatus(connID, protocol.StatusPayload{
		State:   protocol.StateTimeout,
		Message: msg,
	})
	log.Printf("match: search timeout for %s", connID)
}

// startRotator runs the rotating "searching" status messages for one entry.
// The goroutine exits when the entry's rotateDone channel is closed, which
// happens on every removal path.
func (s *Service) startRotator(entry *poolEntry) {
	done := entry.rotateDone
	interval := s.cfg.StatusInterval
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.rotateStatus(entry)
			}
		}
	}()
}

func (s *Service) rotateStatus(entry *poolEntry) {
	connID := entry.profile.ConnectionID

	s.mu.Lock()
	if s.pool.get(connID) != entry {
		s.mu.Unlock()
		return
	}
	flavor := retryPool(entry.profile.Preference)
	msg := flavor[entry.msgIndex%len(flavor)]
	entry.msgIndex++
	s.mu.Unlock()

	s.sendStatus(connID, protocol.StatusPayload{
		State:   protocol.StateSearching,
		Message: msg,
	})
}

// retireEntry cancels an entry's timeout timer and stops its status rotator.
// It must be called exactly once, immediately after the entry is removed from
// the pool. A timer that already fired will observe the removal and no-op.
func retireEntry(e *poolEntry) {
	if e.timeout != nil {
		e.timeout.Stop()
	}
	if e.rotateDone != nil {
		close(e.rotateDone)
	}
}

// ---------------------------------------------------------------------------
// Room teardown and accessors
// ---------------------------------------------------------------------------

// teardownLocked removes a room and all membership bookkeeping. Held lock
// required.
func (s *Service) teardownLocked(room *Room) {
	delete(s.rooms, room.ID)
	for _, id := range room.MemberIDs() {
		delete(s.memberRoom, id)
	}
	s.buffers.Remove(room.ID)
	metrics.ActiveRooms.Set(float64(len(s.rooms)))
}

// PoolSize returns the number of clients currently waiting for a match.
func (s *Service) PoolSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.len()
}

// RoomCount returns the number of active rooms.
func (s *Service) RoomCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// InPool reports whether the connection is currently waiting for a match.
func (s *Service) InPool(connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.get(connID) != nil
}

// RoomFor returns the room ID the connection is chatting in, if any.
func (s *Service) RoomFor(connID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.memberRoom[connID]
	return id, ok
}

// ReportContext resolves the data needed to file an abuse report: the
// reporter's and partner's profiles plus the room's recent messages. ok is
// false when the reporter is not a member of the room.
func (s *Service) ReportContext(connID, roomID string) (reporter, partner Profile, recent []chat.BufferedMessage, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := s.rooms[roomID]
	if room == nil || !room.Has(connID) {
		return Profile{}, Profile{}, nil, false
	}
	return room.Member(connID), room.Partner(connID), s.buffers.Get(roomID), true
}

// ---------------------------------------------------------------------------
// Outbound helpers
// ---------------------------------------------------------------------------

func (s *Service) sendStatus(connID string, payload protocol.StatusPayload) {
	s.send(connID, protocol.TypeStatus, payload)
}

func (s *Service) sendChat(connID string, payload protocol.ChatResponsePayload) {
	s.send(connID, protocol.TypeChatResponse, payload)
}

func (s *Service) sendError(connID string, code, message string) {
	s.send(connID, protocol.TypeError, protocol.ErrorPayload{Code: code, Message: message})
}

// send encodes and delivers one event. Send failures mean the peer is gone;
// they are absorbed, never retried.
func (s *Service) send(connID string, msgType string, payload interface{}) {
	data, err := protocol.NewServerMessage(msgType, payload)
	if err != nil {
		log.Printf("match: failed to build %s for %s: %v", msgType, connID, err)
		return
	}
	_ = s.sender.Send(connID, data)
}
