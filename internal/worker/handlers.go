package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"briefcaster/internal/db"
	"briefcaster/internal/models"
	"briefcaster/internal/podcast"
	"briefcaster/pkg/tasks"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Generator is the part of podcast.Service the worker drives.
type Generator interface {
	RunDaily(ctx context.Context) (podcast.BatchReport, error)
	GenerateForUser(ctx context.Context, userID uuid.UUID) (podcast.UserOutcome, error)
}

type TaskHandler struct {
	generator Generator
	logger    *slog.Logger
	now       func() time.Time
}

func NewTaskHandler(generator Generator, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{generator: generator, logger: logger, now: time.Now}
}

// Register binds every task type this worker understands.
func (h *TaskHandler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(tasks.TypeDailyBatch, h.HandleDailyBatchTask)
	mux.HandleFunc(tasks.TypeGenerateForUser, h.HandleGenerateForUserTask)
	mux.HandleFunc(tasks.TypeExpireSubscriptions, h.HandleExpireSubscriptionsTask)
}

func (h *TaskHandler) HandleDailyBatchTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.DailyBatchTaskPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("failed to unmarshal task payload: %w: %w", err, asynq.SkipRetry)
		}
	}
	h.logger.Info("Running daily podcast batch", "requested_by", p.RequestedBy)

	report, err := h.generator.RunDaily(ctx)
	if err != nil {
		return fmt.Errorf("failed to run daily batch: %w", err)
	}
	h.writeResult(t, report)
	return nil
}

func (h *TaskHandler) HandleGenerateForUserTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.GenerateForUserTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w: %w", err, asynq.SkipRetry)
	}
	h.logger.Info("Generating podcast for user", "user_id", p.UserID)

	outcome, err := h.generator.GenerateForUser(ctx, p.UserID)
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("user %s: %w: %w", p.UserID, err, asynq.SkipRetry)
	}
	if err != nil {
		return fmt.Errorf("failed to generate podcast for user %s: %w", p.UserID, err)
	}
	// A failed outcome is already persisted on the podcast; retrying would start a new one.
	if outcome.Status == podcast.OutcomeFailed {
		h.logger.Warn("podcast generation for user failed", "user_id", p.UserID, "reason", outcome.Reason)
	}
	h.writeResult(t, outcome)
	return nil
}

func (h *TaskHandler) HandleExpireSubscriptionsTask(ctx context.Context, t *asynq.Task) error {
	h.logger.Info("Expiring lapsed subscriptions...")
	userIDs, err := db.ExpireLapsedSubscriptions(ctx, h.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to expire subscriptions: %w", err)
	}
	h.logger.Info("Finished expiring subscriptions", "expired", len(userIDs))
	return nil
}

// writeResult stores v as the task result when the task runs under an asynq server.
func (h *TaskHandler) writeResult(t *asynq.Task, v any) {
	w := t.ResultWriter()
	if w == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Warn("failed to encode task result", "task", t.Type(), "error", err)
		return
	}
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("failed to write task result", "task", t.Type(), "error", err)
	}
}
