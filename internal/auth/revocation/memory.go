package revocation

import (
	"context"
	"sync"
	"time"

	"github.com/silverbridge/backend/internal/auth/domain"
)

// Memory is an in-process registry. It suits tests and single-instance
// deployments; state is lost on restart.
type Memory struct {
	entries sync.Map // jti -> domain.RevocationEntry
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

// WithClock replaces the time source used for retention.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Revoke(ctx context.Context, e domain.RevocationEntry) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	// Entries expiring before the minimum retention are kept for at least
	// that long so a racing IsRevoked still sees them.
	if floor := m.now().Add(MinRetention); e.ExpiresAt.Before(floor) {
		e.ExpiresAt = floor
	}

	_, loaded := m.entries.LoadOrStore(e.JTI, e)
	return !loaded, nil
}

func (m *Memory) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, ok := m.entries.Load(jti)
	return ok, nil
}

// Entry returns the stored entry for jti.
func (m *Memory) Entry(jti string) (domain.RevocationEntry, bool) {
	v, ok := m.entries.Load(jti)
	if !ok {
		return domain.RevocationEntry{}, false
	}
	return v.(domain.RevocationEntry), true
}

func (m *Memory) Prune(ctx context.Context, now time.Time) (int, error) {
	pruned := 0
	m.entries.Range(func(key, value any) bool {
		if ctx.Err() != nil {
			return false
		}
		if e := value.(domain.RevocationEntry); !e.ExpiresAt.After(now) {
			m.entries.Delete(key)
			pruned++
		}
		return true
	})
	return pruned, ctx.Err()
}
