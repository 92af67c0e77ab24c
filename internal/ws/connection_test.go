package ws

import (
	"sync"
	"testing"
	"time"
)

func TestConnection_TouchAdvancesLastSeen(t *testing.T) {
	c := &Connection{ID: "test"}
	c.Touch()
	before := c.LastSeen()

	time.Sleep(5 * time.Millisecond)
	c.Touch()

	if !c.LastSeen().After(before) {
		t.Errorf("expected LastSeen to advance, got %v then %v", before, c.LastSeen())
	}
}

func TestConnection_TouchIsSafeUnderConcurrentReads(t *testing.T) {
	// Read workers and the pong handler update the timestamp while the
	// heartbeat sweep reads it from its own goroutine.
	c := &Connection{ID: "test"}
	c.Touch()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				c.Touch()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if c.LastSeen().IsZero() {
					t.Error("LastSeen went backwards to zero")
					return
				}
			}
		}()
	}
	wg.Wait()
}
