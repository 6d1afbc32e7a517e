package core

import "time"

// OTPTTL is how long a one-time code stays valid after issuance.
const OTPTTL = 5 * time.Minute

// User is an account identified by email or phone. Staff users see every
// owner's records; everyone else is scoped to their own.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	IsStaff      bool
	IsActive     bool
	CreatedAt    time.Time
}

// OTP is a one-time code issued for password reset.
type OTP struct {
	ID        int64
	UserID    string
	Code      string
	Verified  bool
	CreatedAt time.Time
}

// Expired reports whether the code is past its validity window.
func (o OTP) Expired(now time.Time) bool {
	return now.Sub(o.CreatedAt) > OTPTTL
}
