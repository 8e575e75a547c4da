package tasks

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TaskEnqueuer is satisfied by *asynq.Client.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

const (
	TypeDailyBatch          = "podcast:daily-batch"
	TypeGenerateForUser     = "podcast:generate-user"
	TypeExpireSubscriptions = "subscriptions:expire"
)

// DailyBatchTaskPayload is empty for scheduled runs; RequestedBy is set for admin triggers.
type DailyBatchTaskPayload struct {
	RequestedBy string `json:",omitempty"`
}

func NewDailyBatchTask(requestedBy string) (*asynq.Task, error) {
	payload, err := json.Marshal(DailyBatchTaskPayload{RequestedBy: requestedBy})
	if err != nil {
		return nil, err
	}
	// One batch at a time; a second trigger while one is queued is rejected by asynq.
	return asynq.NewTask(TypeDailyBatch, payload, asynq.Unique(time.Hour), asynq.MaxRetry(0), asynq.Timeout(6*time.Hour)), nil
}

type GenerateForUserTaskPayload struct {
	UserID uuid.UUID
}

func NewGenerateForUserTask(userID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(GenerateForUserTaskPayload{UserID: userID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeGenerateForUser, payload, asynq.MaxRetry(2), asynq.Timeout(15*time.Minute)), nil
}

func NewExpireSubscriptionsTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeExpireSubscriptions, nil), nil
}
