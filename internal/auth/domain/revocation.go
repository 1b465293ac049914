package domain

import "time"

// RevocationReason records why a token was invalidated.
type RevocationReason string

const (
	ReasonRotated     RevocationReason = "rotated"
	ReasonLogout      RevocationReason = "logout"
	ReasonCompromised RevocationReason = "compromised"

	// ReasonConsumed marks a temp token spent on a final registration.
	ReasonConsumed RevocationReason = "consumed"
)

// RevocationEntry marks a token jti as dead. ExpiresAt is the last instant
// the token could still verify (its exp plus any clock leeway); the entry
// can be pruned once it has passed.
type RevocationEntry struct {
	JTI       string
	Subject   string
	Reason    RevocationReason
	RevokedAt time.Time
	ExpiresAt time.Time
}
