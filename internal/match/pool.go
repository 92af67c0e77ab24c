package match

import (
	"time"
)

// poolEntry is one waiting client. The timeout timer and the status rotator
// are exclusively owned by the entry and must be retired the moment the entry
// leaves the pool for any reason (matched, cancelled, timed out, disconnected).
type poolEntry struct {
	profile    Profile
	enqueuedAt time.Time

	timeout    *time.Timer
	rotateDone chan struct{}
	msgIndex   int
}

// waitingPool is the set of clients currently searching for a partner.
// Insertion order is preserved because the matching policy breaks ties by
// enqueue order within a compatibility tier.
type waitingPool struct {
	entries map[string]*poolEntry
	order   []string // connection IDs, oldest first
}

func newWaitingPool() *waitingPool {
	return &waitingPool{entries: make(map[string]*poolEntry)}
}

func (w *waitingPool) len() int {
	return len(w.entries)
}

func (w *waitingPool) get(connID string) *poolEntry {
	return w.entries[connID]
}

// add inserts an entry at the back of the pool. The caller must have removed
// any previous entry for the same connection first.
func (w *waitingPool) add(e *poolEntry) {
	w.entries[e.profile.ConnectionID] = e
	w.order = append(w.order, e.profile.ConnectionID)
}

// remove deletes and returns the entry for connID, or nil if absent.
func (w *waitingPool) remove(connID string) *poolEntry {
	e, ok := w.entries[connID]
	if !ok {
		return nil
	}
	delete(w.entries, connID)
	for i, id := range w.order {
		if id == connID {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	return e
}

// scan visits entries in insertion order until fn returns false.
func (w *waitingPool) scan(fn func(*poolEntry) bool) {
	for _, id := range w.order {
		e, ok := w.entries[id]
		if !ok {
			continue
		}
		if !fn(e) {
			return
		}
	}
}
