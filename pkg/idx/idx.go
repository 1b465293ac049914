// Package idx generates the ULIDs used as account ids and request ids.
package idx

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ID is a canonical 26 character ULID. Its string order is its time order.
type ID string

const Zero ID = ""

var ErrInvalid = errors.New("idx: invalid ulid")

// Monotonic entropy keeps ids minted in the same millisecond ordered. It is
// not safe for concurrent use, hence the lock.
var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

func New() ID {
	return NewAt(time.Now())
}

// NewAt mints an id stamped with t.
func NewAt(t time.Time) ID {
	entropyMu.Lock()
	u := ulid.MustNew(ulid.Timestamp(t), entropy)
	entropyMu.Unlock()
	return ID(u.String())
}

// Parse trims s and accepts it only in canonical ULID form.
func Parse(s string) (ID, error) {
	u, err := ulid.ParseStrict(strings.TrimSpace(s))
	if err != nil {
		return Zero, ErrInvalid
	}
	return ID(u.String()), nil
}

func (id ID) IsZero() bool   { return id == Zero }
func (id ID) String() string { return string(id) }

// Time is the millisecond timestamp embedded in id, or the zero time when id
// is not a ULID.
func (id ID) Time() time.Time {
	u, err := ulid.ParseStrict(string(id))
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}
