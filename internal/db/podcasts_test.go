package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"briefcaster/internal/db"
	"briefcaster/internal/models"
	"briefcaster/internal/test"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var podcastCols = []string{"id", "user_id", "generated_script", "audio_url", "duration_seconds", "status", "created_at"}

func TestCreatePodcastWithTopics(t *testing.T) {
	_, mock := test.NewMockDB(t)

	p := models.Podcast{ID: uuid.New(), UserID: uuid.New(), Status: models.StatusPending, CreatedAt: time.Now().UTC()}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO podcasts \(id, user_id, status, created_at\) VALUES \(\$1, \$2, \$3, \$4\)`).
		WithArgs(p.ID, p.UserID, models.StatusPending, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO podcast_topics`).WithArgs(p.ID, int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO podcast_topics`).WithArgs(p.ID, int64(2)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := db.CreatePodcastWithTopics(context.Background(), p, []int64{1, 2})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePodcastWithTopicsRollsBack(t *testing.T) {
	_, mock := test.NewMockDB(t)

	p := models.Podcast{ID: uuid.New(), UserID: uuid.New(), Status: models.StatusPending, CreatedAt: time.Now().UTC()}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO podcasts`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO podcast_topics`).WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	err := db.CreatePodcastWithTopics(context.Background(), p, []int64{9})
	assert.ErrorContains(t, err, "insert podcast topic 9")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePodcastScript(t *testing.T) {
	_, mock := test.NewMockDB(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE podcasts SET generated_script = \$1, status = \$2 WHERE id = \$3`).
		WithArgs("hello listeners", models.StatusProcessing, id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO podcast_articles .* ON CONFLICT DO NOTHING`).WithArgs(id, int64(10)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO podcast_articles .* ON CONFLICT DO NOTHING`).WithArgs(id, int64(11)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := db.UpdatePodcastScript(context.Background(), id, "hello listeners", []int64{10, 11})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePodcastScriptMissingRow(t *testing.T) {
	_, mock := test.NewMockDB(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE podcasts SET generated_script`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := db.UpdatePodcastScript(context.Background(), id, "script", []int64{1})
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePodcastClearsAssociations(t *testing.T) {
	_, mock := test.NewMockDB(t)
	id := uuid.New()

	mock.ExpectBegin()
	for _, table := range []string{"podcast_articles", "podcast_topics", "podcast_segments", "podcast_jobs"} {
		mock.ExpectExec(`DELETE FROM ` + table + ` WHERE podcast_id = \$1`).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectExec(`DELETE FROM podcasts WHERE id = \$1`).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, db.DeletePodcast(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPodcastsCreatedBetween(t *testing.T) {
	_, mock := test.NewMockDB(t)
	userID := uuid.New()
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	script := "script"

	rows := sqlmock.NewRows(podcastCols).
		AddRow(uuid.New().String(), userID.String(), script, nil, nil, "processing", start.Add(time.Hour))
	mock.ExpectQuery(`FROM podcasts\s+WHERE user_id = \$1 AND created_at >= \$2 AND created_at < \$3`).
		WithArgs(userID, start, end).
		WillReturnRows(rows)

	podcasts, err := db.GetPodcastsCreatedBetween(context.Background(), userID, start, end)
	require.NoError(t, err)
	require.Len(t, podcasts, 1)
	assert.Equal(t, models.StatusProcessing, podcasts[0].Status)
	assert.Equal(t, &script, podcasts[0].GeneratedScript)
	assert.Nil(t, podcasts[0].AudioURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPodcastsByUserID(t *testing.T) {
	_, mock := test.NewMockDB(t)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM podcasts WHERE user_id = \$1`).WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`ORDER BY created_at DESC, id\s+OFFSET \$2 LIMIT \$3`).WithArgs(userID, 2, 2).
		WillReturnRows(sqlmock.NewRows(podcastCols).
			AddRow(uuid.New().String(), userID.String(), nil, nil, nil, "pending", time.Now()))

	podcasts, total, err := db.GetPodcastsByUserID(context.Background(), userID, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, podcasts, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreTranslatesNoRows(t *testing.T) {
	_, mock := test.NewMockDB(t)
	id := uuid.New()

	mock.ExpectQuery(`FROM podcasts WHERE id = \$1`).WithArgs(id).WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`FROM users WHERE id = \$1`).WithArgs(id).WillReturnError(sql.ErrNoRows)

	store := db.NewStore()
	_, err := store.GetPodcast(context.Background(), id)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = store.GetUser(context.Background(), id)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertPodcastJob(t *testing.T) {
	_, mock := test.NewMockDB(t)
	msg := "tts quota exhausted"
	job := models.PodcastJob{
		ID:           uuid.New(),
		PodcastID:    uuid.New(),
		StepName:     models.StepTTS,
		Status:       models.StatusFailed,
		ErrorMessage: &msg,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	mock.ExpectExec(`INSERT INTO podcast_jobs`).
		WithArgs(job.ID, job.PodcastID, "tts", "failed", msg, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, db.InsertPodcastJob(context.Background(), job))
	assert.NoError(t, mock.ExpectationsWereMet())
}
