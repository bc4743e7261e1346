package models

import (
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time for deterministic planning and tests.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant. Test helper.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }

// NewID generates a collision-resistant opaque identifier.
func NewID() string { return uuid.New().String() }
