package chat

import (
	"strings"
	"testing"
)

func TestValidateMessage_Valid(t *testing.T) {
	cases := []string{
		"hello",
		"a",
		strings.Repeat("x", MaxTextChars),
		"emoji are fine 🙂",
	}
	for _, text := range cases {
		if err := ValidateMessage(text); err != nil {
			t.Errorf("ValidateMessage(%d chars) unexpected error: %v", len(text), err)
		}
	}
}

func TestValidateMessage_Empty(t *testing.T) {
	if err := ValidateMessage(""); err == nil {
		t.Error("expected error for empty message")
	}
}

func TestValidateMessage_TooManyBytes(t *testing.T) {
	if err := ValidateMessage(strings.Repeat("x", MaxMessageBytes+1)); err == nil {
		t.Error("expected error for oversized message")
	}
}

func TestValidateMessage_TooManyChars(t *testing.T) {
	// Multibyte runes: under the byte limit but over the character limit.
	text := strings.Repeat("é", MaxTextChars+1)
	if len(text) > MaxMessageBytes {
		t.Fatal("test string exceeds byte limit, rewrite the test")
	}
	if err := ValidateMessage(text); err == nil {
		t.Error("expected error for too many characters")
	}
}

func TestValidateMessage_InvalidUTF8(t *testing.T) {
	if err := ValidateMessage("abc\xff\xfe"); err == nil {
		t.Error("expected error for invalid UTF-8")
	}
}
