package domain

import "time"

// PhoneVerification tracks one outstanding SMS code for a phone number.
// A new send replaces the previous row.
type PhoneVerification struct {
	PhoneNumber string
	Secret      string // TOTP secret the code is derived from (base32)
	Attempts    int
	ExpiresAt   time.Time
	VerifiedAt  *time.Time
	CreatedAt   time.Time
}

// Verified reports whether the code was confirmed and is still usable at now.
func (v PhoneVerification) Verified(now time.Time) bool {
	return v.VerifiedAt != nil && now.Before(v.ExpiresAt)
}
