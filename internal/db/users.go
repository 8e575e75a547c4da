package db

import (
	"context"

	"briefcaster/internal/models"

	"github.com/google/uuid"
)

func GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	user := models.User{}
	err := DB.GetContext(ctx, &user, "SELECT id, username, plan_type, created_at FROM users WHERE id = $1", id)
	return user, err
}

// GetAllUsers returns every user in a stable order for batch processing.
func GetAllUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := DB.SelectContext(ctx, &users, "SELECT id, username, plan_type, created_at FROM users ORDER BY created_at, id")
	return users, err
}
