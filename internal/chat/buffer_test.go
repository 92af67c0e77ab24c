package chat

import (
	"fmt"
	"testing"
)

func TestMessageBuffer_EmptyRoom(t *testing.T) {
	mb := NewMessageBuffer()

	got := mb.Get("nope")
	if len(got) != 0 {
		t.Errorf("expected empty slice for unknown room, got %v", got)
	}
}

func TestMessageBuffer_ChronologicalOrder(t *testing.T) {
	mb := NewMessageBuffer()

	for i := 0; i < 3; i++ {
		mb.Add("room", BufferedMessage{From: "a", Text: fmt.Sprintf("msg-%d", i), Ts: int64(i)})
	}

	got := mb.Get("room")
	if len(got) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(got))
	}
	for i, m := range got {
		if m.Text != fmt.Sprintf("msg-%d", i) {
			t.Errorf("position %d = %q, out of order", i, m.Text)
		}
	}
}

func TestMessageBuffer_OverwritesOldest(t *testing.T) {
	mb := NewMessageBuffer()

	total := MaxBufferMessages + 3
	for i := 0; i < total; i++ {
		mb.Add("room", BufferedMessage{Text: fmt.Sprintf("msg-%d", i), Ts: int64(i)})
	}

	got := mb.Get("room")
	if len(got) != MaxBufferMessages {
		t.Fatalf("expected %d messages, got %d", MaxBufferMessages, len(got))
	}
	// The oldest surviving message is total - MaxBufferMessages.
	if got[0].Text != fmt.Sprintf("msg-%d", total-MaxBufferMessages) {
		t.Errorf("oldest = %q, want msg-%d", got[0].Text, total-MaxBufferMessages)
	}
	if got[len(got)-1].Text != fmt.Sprintf("msg-%d", total-1) {
		t.Errorf("newest = %q, want msg-%d", got[len(got)-1].Text, total-1)
	}
}

func TestMessageBuffer_RoomsAreIndependent(t *testing.T) {
	mb := NewMessageBuffer()

	mb.Add("r1", BufferedMessage{Text: "one"})
	mb.Add("r2", BufferedMessage{Text: "two"})

	if got := mb.Get("r1"); len(got) != 1 || got[0].Text != "one" {
		t.Errorf("r1 = %v", got)
	}
	if got := mb.Get("r2"); len(got) != 1 || got[0].Text != "two" {
		t.Errorf("r2 = %v", got)
	}
}

func TestMessageBuffer_Remove(t *testing.T) {
	mb := NewMessageBuffer()

	mb.Add("room", BufferedMessage{Text: "bye"})
	mb.Remove("room")

	if got := mb.Get("room"); len(got) != 0 {
		t.Errorf("expected empty after remove, got %v", got)
	}
}
