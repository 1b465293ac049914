package domain

import "time"

// TokenPair is what login and refresh hand back.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessJTI        string
	RefreshJTI       string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// ExpiresIn is the access token lifetime remaining at now, in whole seconds.
func (p TokenPair) ExpiresIn(now time.Time) int64 {
	d := p.AccessExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}
