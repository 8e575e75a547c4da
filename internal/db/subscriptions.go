package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"briefcaster/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// GetEffectivePlan returns paid when the user holds an active subscription, otherwise the
// stored plan type.
func GetEffectivePlan(ctx context.Context, userID uuid.UUID) (models.Plan, error) {
	query := `
		SELECT u.plan_type,
			EXISTS (
				SELECT 1 FROM user_subscriptions s
				WHERE s.user_id = u.id AND s.status = 'active'
			) AS has_active
		FROM users u
		WHERE u.id = $1
	`
	var row struct {
		PlanType  models.Plan `db:"plan_type"`
		HasActive bool        `db:"has_active"`
	}
	if err := DB.GetContext(ctx, &row, query, userID); err != nil {
		return "", err
	}
	if row.HasActive {
		return models.PlanPaid, nil
	}
	return row.PlanType, nil
}

// ExpireLapsedSubscriptions expires cancelled subscriptions whose grace period has ended and
// downgrades their users to the free plan. It returns the affected user IDs.
func ExpireLapsedSubscriptions(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	var userIDs []uuid.UUID
	err := withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE user_subscriptions
			SET status = 'expired', end_date = $1, updated_at = $1
			WHERE status = 'cancelled' AND grace_period_end IS NOT NULL AND grace_period_end <= $1
			RETURNING user_id
		`
		if err := tx.SelectContext(ctx, &userIDs, query, now); err != nil {
			return fmt.Errorf("expire subscriptions: %w", err)
		}
		if len(userIDs) == 0 {
			return nil
		}
		ids := make([]string, len(userIDs))
		for i, id := range userIDs {
			ids[i] = id.String()
		}
		if _, err := tx.ExecContext(ctx, "UPDATE users SET plan_type = 'free' WHERE id = ANY($1::uuid[])", pq.Array(ids)); err != nil {
			return fmt.Errorf("downgrade users: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(userIDs) > 0 {
		slog.Info("expired subscriptions", "count", len(userIDs))
	}
	return userIDs, nil
}
