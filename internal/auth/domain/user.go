package domain

import (
	"time"

	"github.com/silverbridge/backend/pkg/jwtx"
)

type User struct {
	ID           string // ULID
	Name         string
	PhoneNumber  string // login identifier, unique
	PasswordHash string // argon2 encoded
	Role         Role
	Birth        *time.Time // date only (nullable)
	Region       string
	KakaoID      *int64 // linked Kakao account, unique
	Social       bool   // signed up or linked through social login
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the identity embedded in tokens issued to u.
func (u User) Principal() jwtx.Principal {
	return jwtx.Principal{ID: u.ID, Roles: []string{string(u.Role)}}
}
