package models

import (
	"time"

	"github.com/google/uuid"
)

// Plan is a billing tier.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPaid Plan = "paid"
)

// User represents an account in the database.
type User struct {
	ID        uuid.UUID `db:"id"`
	Username  string    `db:"username"`
	PlanType  Plan      `db:"plan_type"`
	CreatedAt time.Time `db:"created_at"`
}

// UserContextKey is the key for the authenticated user ID in a request context.
const UserContextKey = contextKey("user_id")

type contextKey string
