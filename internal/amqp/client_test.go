package amqp

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("connection refused"), true},
		{"closed connection", errors.New("connection closed"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"unrelated error", errors.New("invalid payload"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestOTPMessageRoundTrip(t *testing.T) {
	msg := NewOTPMessage("user-1", "Ravi", "ravi@example.com", "", "482913")

	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	parsed, err := OTPMessageFromJSON(body)
	if err != nil {
		t.Fatalf("OTPMessageFromJSON: %v", err)
	}
	if parsed.UserID != msg.UserID {
		t.Errorf("UserID = %q, want %q", parsed.UserID, msg.UserID)
	}
	if parsed.Code != msg.Code {
		t.Errorf("Code = %q, want %q", parsed.Code, msg.Code)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestOTPMessageInvalidJSON(t *testing.T) {
	if _, err := OTPMessageFromJSON([]byte(`{"user_id": 42}`)); err == nil {
		t.Error("OTPMessageFromJSON() should fail with mistyped JSON")
	}
}
