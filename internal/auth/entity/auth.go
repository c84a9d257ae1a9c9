// Package entity holds the domain types of the auth module.
package entity

import "time"

// Account is a verified user account.
type Account struct {
	ID             int64
	Email          string
	PasswordDigest string
	CreatedAt      time.Time
}

// PendingSignup is a signup awaiting OTP verification. It lives in the cache
// with a TTL and is keyed by normalized email.
type PendingSignup struct {
	Email          string
	OTPDigest      string
	PasswordDigest string
	Attempts       int32
	CreatedAt      time.Time
	ExpiresAt      time.Time
}

// Expired reports whether the pending signup is past its expiry at the given time.
func (p PendingSignup) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}
