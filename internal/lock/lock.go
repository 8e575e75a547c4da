// Package lock provides optional advisory locks keyed by user and day. Generation does
// not lock unless a non-noop Locker is configured.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Locker grants exclusive, expiring ownership of a key.
type Locker interface {
	// Acquire reports false without error when another holder owns key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// UserDayKey names the lock guarding generation for one user on one UTC day.
func UserDayKey(userID uuid.UUID, day time.Time) string {
	return fmt.Sprintf("podcast-generation:%s:%s", userID, day.UTC().Format("2006-01-02"))
}

// Noop always grants the lock.
type Noop struct{}

func (Noop) Acquire(context.Context, string, time.Duration) (bool, error) { return true, nil }
func (Noop) Release(context.Context, string) error                        { return nil }
