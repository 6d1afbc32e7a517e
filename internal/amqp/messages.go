package amqp

import (
	"encoding/json"
	"time"
)

// OTPMessage carries a one-time code to the delivery worker. It holds the
// contact details directly so the worker never needs a database connection.
type OTPMessage struct {
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

// NewOTPMessage creates a delivery message for the given recipient and code.
func NewOTPMessage(userID, name, email, phone, code string) *OTPMessage {
	return &OTPMessage{
		UserID:    userID,
		Name:      name,
		Email:     email,
		Phone:     phone,
		Code:      code,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *OTPMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func OTPMessageFromJSON(data []byte) (*OTPMessage, error) {
	var msg OTPMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
