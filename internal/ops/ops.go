package ops

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// pageBounds applies the list defaults and bounds.
func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return limit, max(offset, 0)
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// newID returns a ULID for t. Monotonic entropy keeps ids sortable within one millisecond.
func newID(t time.Time) (string, error) {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

var (
	processRunOnce sync.Once
	processRun     string
)

// ProcessRunID returns the run id shared by every capture in this process.
func ProcessRunID() string {
	processRunOnce.Do(func() {
		id, err := newID(time.Now())
		if err != nil {
			id = time.Now().UTC().Format("20060102T150405")
		}
		processRun = id
	})
	return processRun
}

// cleanOptionalString trims s and returns nil for an empty result.
func cleanOptionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
