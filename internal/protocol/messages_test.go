package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseClientMessage_Find(t *testing.T) {
	data := []byte(`{"type":"find","data":{"userId":"u-1","name":"alice","gender":"F","preference":"M"}}`)

	msgType, msg, err := ParseClientMessage(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msgType != TypeFind {
		t.Errorf("expected type find, got %q", msgType)
	}

	find, ok := msg.(FindPayload)
	if !ok {
		t.Fatalf("expected FindPayload, got %T", msg)
	}
	if find.UserID != "u-1" || find.Name != "alice" || find.Gender != "F" || find.Preference != "M" {
		t.Errorf("unexpected payload %+v", find)
	}
}

func TestParseClientMessage_StringWrappedPayload(t *testing.T) {
	// Some app-builder clients JSON-stringify the payload before sending.
	data := []byte(`{"type":"find","data":"{\"name\":\"bob\",\"gender\":\"M\",\"preference\":\"A\"}"}`)

	msgType, msg, err := ParseClientMessage(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msgType != TypeFind {
		t.Errorf("expected type find, got %q", msgType)
	}
	find := msg.(FindPayload)
	if find.Name != "bob" || find.Gender != "M" {
		t.Errorf("unexpected payload %+v", find)
	}
}

func TestParseClientMessage_ChatMessageKindField(t *testing.T) {
	// The payload's own "type" field is the message kind, distinct from the
	// envelope discriminator.
	data := []byte(`{"type":"chat_message","data":{"roomId":"r-1","message":"hi","type":"text","time":"12:30"}}`)

	_, msg, err := ParseClientMessage(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	chat := msg.(ChatMessagePayload)
	if chat.RoomID != "r-1" || chat.Message != "hi" || chat.Kind != "text" || chat.Time != "12:30" {
		t.Errorf("unexpected payload %+v", chat)
	}
}

func TestParseClientMessage_EmptyPayload(t *testing.T) {
	for _, data := range []string{
		`{"type":"cancel_search"}`,
		`{"type":"cancel_search","data":null}`,
		`{"type":"cancel_search","data":""}`,
	} {
		msgType, msg, err := ParseClientMessage([]byte(data))
		if err != nil {
			t.Errorf("ParseClientMessage(%s) error: %v", data, err)
			continue
		}
		if msgType != TypeCancelSearch {
			t.Errorf("expected cancel_search, got %q", msgType)
		}
		if _, ok := msg.(CancelSearchPayload); !ok {
			t.Errorf("expected CancelSearchPayload, got %T", msg)
		}
	}
}

func TestParseClientMessage_MissingType(t *testing.T) {
	if _, _, err := ParseClientMessage([]byte(`{"data":{}}`)); err == nil {
		t.Error("expected error for missing type")
	}
}

func TestParseClientMessage_UnknownType(t *testing.T) {
	msgType, _, err := ParseClientMessage([]byte(`{"type":"teleport","data":{}}`))
	if err == nil {
		t.Fatal("expected error for unknown type")
	}
	if msgType != "teleport" {
		t.Errorf("expected the offending type back, got %q", msgType)
	}
	if !strings.Contains(err.Error(), "unknown client message type") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestParseClientMessage_MalformedJSON(t *testing.T) {
	if _, _, err := ParseClientMessage([]byte(`{nope`)); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestParseClientMessage_MalformedStringPayload(t *testing.T) {
	data := []byte(`{"type":"find","data":"{not json"}`)
	if _, _, err := ParseClientMessage(data); err == nil {
		t.Error("expected error for malformed string payload")
	}
}

func TestNewServerMessage(t *testing.T) {
	out, err := NewServerMessage(TypeStatus, StatusPayload{
		State:  StateMatched,
		RoomID: "r-1",
		Partner: &SafeProfile{
			UserID: "u-2", Name: "bob", Gender: "Male", Preference: "Any",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(out, &env); err != nil {
		t.Fatalf("output is not a valid envelope: %v", err)
	}
	if env.Type != TypeStatus {
		t.Errorf("expected status envelope, got %q", env.Type)
	}

	var payload StatusPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	if payload.State != StateMatched || payload.RoomID != "r-1" {
		t.Errorf("unexpected payload %+v", payload)
	}
	if payload.Partner == nil || payload.Partner.Name != "bob" {
		t.Errorf("expected partner profile, got %+v", payload.Partner)
	}
}

func TestNewServerMessage_OmitsEmptyOptionalFields(t *testing.T) {
	out, err := NewServerMessage(TypeStatus, StatusPayload{State: StateSearching, Message: "hold on"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := string(out)
	if strings.Contains(s, "roomId") || strings.Contains(s, "partner") {
		t.Errorf("empty optional fields must be omitted: %s", s)
	}
}
