package ws

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// Connection is one upgraded WebSocket client. Outbound frames are serialized
// by the write mutex so the relay, the heartbeat and the dispatcher can all
// write without interleaving frame bytes.
type Connection struct {
	ID         string   // connection ID (UUID), doubles as the default user ID
	Conn       net.Conn // underlying TCP connection
	Fd         int      // file descriptor for poller registration
	RemoteAddr string   // client address at upgrade time, for per-IP limits
	CreatedAt  time.Time
	lastSeen   int64 // unix nanos of the last successful read, updated atomically
	writeMu    sync.Mutex
	processing int32 // atomic flag: 1 while a worker is reading this conn
}

// Touch records client activity. Safe to call from any goroutine; the
// heartbeat sweep reads the timestamp concurrently with the read workers.
func (c *Connection) Touch() {
	atomic.StoreInt64(&c.lastSeen, time.Now().UnixNano())
}

// LastSeen reports the time of the last successful read from the client.
func (c *Connection) LastSeen() time.Time {
	return time.Unix(0, atomic.LoadInt64(&c.lastSeen))
}

// WriteMessage sends a text frame to this connection.
func (c *Connection) WriteMessage(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return wsutil.WriteServerMessage(c.Conn, ws.OpText, data)
}

// WritePing sends a protocol-level ping frame (opcode 0x9).
func (c *Connection) WritePing() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return ws.WriteFrame(c.Conn, ws.NewPingFrame(nil))
}

// Close closes the underlying network connection.
func (c *Connection) Close() error {
	return c.Conn.Close()
}

// registry is a thread-safe map of live connections with O(1) lookup by
// connection ID and by underlying net.Conn. Keying by net.Conn rather than fd
// keeps lookups correct on platforms where the poller fallback has no fds.
type registry struct {
	mu     sync.RWMutex
	byID   map[string]*Connection
	byConn map[net.Conn]*Connection
}

func newRegistry() *registry {
	return &registry{
		byID:   make(map[string]*Connection),
		byConn: make(map[net.Conn]*Connection),
	}
}

func (r *registry) add(c *Connection) {
	r.mu.Lock()
	r.byID[c.ID] = c
	r.byConn[c.Conn] = c
	r.mu.Unlock()
}

// remove deletes the connection and closes its socket. It reports whether the
// connection was still registered, which lets racing removers (read error vs
// heartbeat timeout) agree on a single winner.
func (r *registry) remove(id string) bool {
	r.mu.Lock()
	c, ok := r.byID[id]
	if ok {
		delete(r.byID, id)
		delete(r.byConn, c.Conn)
	}
	r.mu.Unlock()

	if ok {
		c.Close()
	}
	return ok
}

func (r *registry) get(id string) *Connection {
	r.mu.RLock()
	c := r.byID[id]
	r.mu.RUnlock()
	return c
}

func (r *registry) getByConn(nc net.Conn) *Connection {
	r.mu.RLock()
	c := r.byConn[nc]
	r.mu.RUnlock()
	return c
}

func (r *registry) count() int {
	r.mu.RLock()
	n := len(r.byID)
	r.mu.RUnlock()
	return n
}

// all returns a snapshot safe to iterate without holding the lock.
func (r *registry) all() []*Connection {
	r.mu.RLock()
	conns := make([]*Connection, 0, len(r.byID))
	for _, c := range r.byID {
		conns = append(conns, c)
	}
	r.mu.RUnlock()
	return conns
}
