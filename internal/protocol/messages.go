// Package protocol defines the WebSocket message types and structures used for
// communication between the client and server. All messages are serialized as
// JSON and follow a consistent envelope format with a type discriminator and a
// payload under "data". Some client builds deliver the payload as a
// JSON-encoded string rather than an embedded object; decoding absorbs both.
package protocol

import (
	"encoding/json"
	"fmt"
)

// ---------------------------------------------------------------------------
// Message type constants
// ---------------------------------------------------------------------------

// Client -> Server message types.
const (
	TypeFind         = "find"
	TypeCancelSearch = "cancel_search"
	TypeChatMessage  = "chat_message"
	TypeLeaveChat    = "leave_chat"
	TypeReport       = "report"
	TypePing         = "ping"
)

// Server -> Client message types.
const (
	TypeServerReady  = "server_ready"
	TypeStatus       = "status"
	TypeChatResponse = "chat_response"
	TypeReportAck    = "report_ack"
	TypeError        = "error"
	TypePong         = "pong"
)

// Status states carried by StatusPayload.State.
const (
	StateSearching = "searching"
	StateMatched   = "matched"
	StateTimeout   = "timeout"
	StateCancelled = "cancelled"
	StateBanned    = "banned"
)

// Chat response statuses carried by ChatResponsePayload.Status.
const (
	ChatStatusChatting            = "chatting"
	ChatStatusPartnerLeft         = "partner_left"
	ChatStatusPartnerDisconnected = "partner_disconnected"
)

// ---------------------------------------------------------------------------
// Envelope: initial JSON parsing to extract the type discriminator.
// ---------------------------------------------------------------------------

// Envelope holds the message type and the raw payload bytes for deferred
// parsing into a concrete struct.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// UnmarshalJSON implements the json.Unmarshaler interface. It extracts the
// "type" discriminator and captures the raw payload for deferred decoding.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var partial struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &partial); err != nil {
		return fmt.Errorf("protocol: failed to unmarshal envelope: %w", err)
	}
	if partial.Type == "" {
		return fmt.Errorf("protocol: missing or empty \"type\" field")
	}
	e.Type = partial.Type
	e.Data = partial.Data
	return nil
}

// decodePayload decodes a raw payload into v. The payload may be an embedded
// JSON object, a JSON-encoded string containing an object (legacy app-builder
// clients stringify before sending), or absent entirely.
func decodePayload(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil // no payload; leave v at zero value
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return fmt.Errorf("protocol: failed to unwrap string payload: %w", err)
		}
		if inner == "" {
			return nil
		}
		if err := json.Unmarshal([]byte(inner), v); err != nil {
			return fmt.Errorf("protocol: failed to decode string payload: %w", err)
		}
		return nil
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("protocol: failed to decode payload: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Client -> Server payloads
// ---------------------------------------------------------------------------

// FindPayload is sent by the client to search for a chat partner.
type FindPayload struct {
	UserID     string `json:"userId,omitempty"`
	Name       string `json:"name"`
	Gender     string `json:"gender"`
	Preference string `json:"preference"`
}

// CancelSearchPayload is sent by the client to leave the waiting pool.
type CancelSearchPayload struct{}

// ChatMessagePayload is a text message sent by the client within a room.
// Kind carries the client-side message type (text, image, ...) and is passed
// through to the partner untouched.
type ChatMessagePayload struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
	Kind    string `json:"type"`
	Name    string `json:"name,omitempty"`
	Gender  string `json:"gender,omitempty"`
	Time    string `json:"time,omitempty"`
}

// LeaveChatPayload is sent by the client to end the current chat voluntarily.
type LeaveChatPayload struct {
	RoomID string `json:"roomId"`
}

// ReportPayload is sent by the client to report the chat partner.
type ReportPayload struct {
	RoomID string `json:"roomId"`
	Reason string `json:"reason"`
}

// PingPayload is a client-initiated keepalive ping.
type PingPayload struct{}

// ---------------------------------------------------------------------------
// Server -> Client payloads
// ---------------------------------------------------------------------------

// ServerReadyPayload is sent once on connect and carries client-facing
// configuration, including the preference-cost pass-through flag.
type ServerReadyPayload struct {
	State          string `json:"state"`
	Version        string `json:"version"`
	Reward         int    `json:"reward"`
	PreferenceCost int    `json:"preferenceCost"`
	Maintenance    string `json:"maintenance"`
	URL            string `json:"url,omitempty"`
}

// SafeProfile is the subset of a client profile exposed to the other party.
// Internal bookkeeping (connection handles, timers) is never included.
type SafeProfile struct {
	UserID     string `json:"userId"`
	Name       string `json:"name"`
	Gender     string `json:"gender"`
	Preference string `json:"preference"`
}

// StatusPayload reports matchmaking state transitions to the client.
type StatusPayload struct {
	State   string       `json:"state"`
	RoomID  string       `json:"roomId,omitempty"`
	Partner *SafeProfile `json:"partner,omitempty"`
	Message string       `json:"message,omitempty"`
}

// ChatResponsePayload carries relayed chat traffic and room lifecycle events.
type ChatResponsePayload struct {
	Status  string `json:"status"`
	RoomID  string `json:"roomId"`
	From    string `json:"from,omitempty"`
	Name    string `json:"name,omitempty"`
	Gender  string `json:"gender,omitempty"`
	Kind    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
	Time    string `json:"time,omitempty"`
}

// ReportAckPayload acknowledges a submitted abuse report.
type ReportAckPayload struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ErrorPayload is sent by the server to communicate an error condition.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PongPayload is the server's response to a client ping.
type PongPayload struct{}

// ---------------------------------------------------------------------------
// Helper functions
// ---------------------------------------------------------------------------

// ParseClientMessage parses raw WebSocket bytes into a typed client message.
// It returns the message type string, the decoded payload struct, and any
// error encountered during parsing. An error is returned for unknown or
// server-only message types.
func ParseClientMessage(data []byte) (string, interface{}, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("protocol: failed to parse message: %w", err)
	}

	var (
		msg interface{}
		err error
	)

	switch env.Type {
	case TypeFind:
		var m FindPayload
		err = decodePayload(env.Data, &m)
		msg = m
	case TypeCancelSearch:
		var m CancelSearchPayload
		err = decodePayload(env.Data, &m)
		msg = m
	case TypeChatMessage:
		var m ChatMessagePayload
		err = decodePayload(env.Data, &m)
		msg = m
	case TypeLeaveChat:
		var m LeaveChatPayload
		err = decodePayload(env.Data, &m)
		msg = m
	case TypeReport:
		var m ReportPayload
		err = decodePayload(env.Data, &m)
		msg = m
	case TypePing:
		var m PingPayload
		err = decodePayload(env.Data, &m)
		msg = m
	default:
		return env.Type, nil, fmt.Errorf("protocol: unknown client message type: %q", env.Type)
	}

	if err != nil {
		return env.Type, nil, fmt.Errorf("protocol: failed to decode %q payload: %w", env.Type, err)
	}
	return env.Type, msg, nil
}

// NewServerMessage creates a JSON-encoded byte slice for a server message with
// the given type discriminator and payload.
func NewServerMessage(msgType string, payload interface{}) ([]byte, error) {
	out, err := json.Marshal(struct {
		Type string      `json:"type"`
		Data interface{} `json:"data"`
	}{Type: msgType, Data: payload})
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to marshal server message: %w", err)
	}
	return out, nil
}
