package model

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewSortableID returns a ULID string. IDs generated within the same
// millisecond stay strictly increasing.
func NewSortableID(at time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), entropy).String()
}

// NewEntityID returns a random identifier for user-authored entities
// (loops and activity instances)
func NewEntityID() string {
	return uuid.New().String()
}

// IDGenerator creates identifiers. Services take one so tests can pin ids.
type IDGenerator interface {
	NewID(at time.Time) string
}

// ULIDGenerator generates time-sortable ULIDs
type ULIDGenerator struct{}

// NewID implements IDGenerator
func (ULIDGenerator) NewID(at time.Time) string {
	return NewSortableID(at)
}
