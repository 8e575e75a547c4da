package test

import (
	"testing"

	"briefcaster/internal/db"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
)

// MockTaskEnqueuer records enqueued tasks instead of talking to Redis.
type MockTaskEnqueuer struct {
	EnqueuedTasks []*asynq.Task
	Options       [][]asynq.Option
	Err           error
}

func (m *MockTaskEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.EnqueuedTasks = append(m.EnqueuedTasks, task)
	m.Options = append(m.Options, opts)
	return &asynq.TaskInfo{ID: "test-task-id", Type: task.Type(), Queue: "default"}, nil
}

// NewMockDB points db.DB at a regexp-matching sqlmock connection for the
// lifetime of t. The postgres driver name keeps sqlx on $n bindvars.
func NewMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("opening sqlmock connection: %v", err)
	}
	mockDB := sqlx.NewDb(conn, "postgres")

	previous := db.DB
	db.DB = mockDB
	t.Cleanup(func() {
		db.DB = previous
		_ = conn.Close()
	})

	return mockDB, mock
}
