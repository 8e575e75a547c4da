package db

import (
	"context"
	"fmt"
	"time"

	"briefcaster/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const podcastColumns = "id, user_id, generated_script, audio_url, duration_seconds, status, created_at"

// CreatePodcastWithTopics inserts a pending podcast and its topic set in one transaction.
func CreatePodcastWithTopics(ctx context.Context, p models.Podcast, topicIDs []int64) error {
	return withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO podcasts (id, user_id, status, created_at) VALUES ($1, $2, $3, $4)",
			p.ID, p.UserID, p.Status, p.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert podcast: %w", err)
		}
		for _, topicID := range topicIDs {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO podcast_topics (podcast_id, topic_id) VALUES ($1, $2)",
				p.ID, topicID)
			if err != nil {
				return fmt.Errorf("insert podcast topic %d: %w", topicID, err)
			}
		}
		return nil
	})
}

func GetPodcastByID(ctx context.Context, id uuid.UUID) (models.Podcast, error) {
	podcast := models.Podcast{}
	err := DB.GetContext(ctx, &podcast, "SELECT "+podcastColumns+" FROM podcasts WHERE id = $1", id)
	return podcast, err
}

// GetPodcastsCreatedBetween returns a user's podcasts with start <= created_at < end,
// oldest first.
func GetPodcastsCreatedBetween(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]models.Podcast, error) {
	query := `
		SELECT ` + podcastColumns + `
		FROM podcasts
		WHERE user_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at, id
	`
	var podcasts []models.Podcast
	err := DB.SelectContext(ctx, &podcasts, query, userID, start, end)
	return podcasts, err
}

func GetPodcastTopicIDs(ctx context.Context, podcastID uuid.UUID) ([]int64, error) {
	var ids []int64
	err := DB.SelectContext(ctx, &ids, "SELECT topic_id FROM podcast_topics WHERE podcast_id = $1 ORDER BY topic_id", podcastID)
	return ids, err
}

// UpdatePodcastScript stores the script, moves the podcast to processing and records
// every article that fed the script.
func UpdatePodcastScript(ctx context.Context, podcastID uuid.UUID, script string, articleIDs []int64) error {
	return withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE podcasts SET generated_script = $1, status = $2 WHERE id = $3",
			script, models.StatusProcessing, podcastID)
		if err != nil {
			return fmt.Errorf("update podcast script: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return models.ErrNotFound
		}
		for _, articleID := range articleIDs {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO podcast_articles (podcast_id, article_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
				podcastID, articleID)
			if err != nil {
				return fmt.Errorf("insert podcast article %d: %w", articleID, err)
			}
		}
		return nil
	})
}

func UpdatePodcastAudioSuccess(ctx context.Context, podcastID uuid.UUID, audioURL string, duration int) error {
	_, err := DB.ExecContext(ctx, `
		UPDATE podcasts
		SET status = 'completed', audio_url = $1, duration_seconds = $2
		WHERE id = $3`,
		audioURL, duration, podcastID)
	return err
}

func UpdatePodcastFailed(ctx context.Context, podcastID uuid.UUID) error {
	_, err := DB.ExecContext(ctx, "UPDATE podcasts SET status = 'failed' WHERE id = $1", podcastID)
	return err
}

// DeletePodcast removes a podcast together with every row that references it.
func DeletePodcast(ctx context.Context, podcastID uuid.UUID) error {
	return withTx(ctx, func(tx *sqlx.Tx) error {
		for _, table := range []string{"podcast_articles", "podcast_topics", "podcast_segments", "podcast_jobs"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE podcast_id = $1", podcastID); err != nil {
				return fmt.Errorf("delete %s: %w", table, err)
			}
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM podcasts WHERE id = $1", podcastID); err != nil {
			return fmt.Errorf("delete podcast: %w", err)
		}
		return nil
	})
}

// GetPodcastsByUserID returns one page of a user's podcasts, newest first, and the total count.
func GetPodcastsByUserID(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Podcast, int, error) {
	var total int
	if err := DB.GetContext(ctx, &total, "SELECT COUNT(*) FROM podcasts WHERE user_id = $1", userID); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + podcastColumns + `
		FROM podcasts
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		OFFSET $2 LIMIT $3
	`
	var podcasts []models.Podcast
	if err := DB.SelectContext(ctx, &podcasts, query, userID, offset, limit); err != nil {
		return nil, 0, err
	}
	return podcasts, total, nil
}

func GetCompletedPodcastsByUserID(ctx context.Context, userID uuid.UUID) ([]models.Podcast, error) {
	query := `
		SELECT ` + podcastColumns + `
		FROM podcasts
		WHERE user_id = $1 AND status = 'completed'
		ORDER BY created_at DESC
	`
	var podcasts []models.Podcast
	err := DB.SelectContext(ctx, &podcasts, query, userID)
	return podcasts, err
}

func GetPodcastTopics(ctx context.Context, podcastID uuid.UUID) ([]models.Topic, error) {
	query := `
		SELECT t.id, t.name, t.slug
		FROM topics t
		JOIN podcast_topics pt ON pt.topic_id = t.id
		WHERE pt.podcast_id = $1
		ORDER BY t.id
	`
	var topics []models.Topic
	err := DB.SelectContext(ctx, &topics, query, podcastID)
	return topics, err
}

func GetPodcastArticles(ctx context.Context, podcastID uuid.UUID) ([]models.Article, error) {
	query := `
		SELECT a.id, a.source_id, a.topic_id, a.title, a.summary_text, a.url, a.published_at
		FROM articles a
		JOIN podcast_articles pa ON pa.article_id = a.id
		WHERE pa.podcast_id = $1
		ORDER BY a.published_at DESC NULLS LAST, a.id
	`
	var articles []models.Article
	err := DB.SelectContext(ctx, &articles, query, podcastID)
	return articles, err
}

func GetPodcastSegments(ctx context.Context, podcastID uuid.UUID) ([]models.PodcastSegment, error) {
	query := `
		SELECT id, podcast_id, title, start_second, end_second
		FROM podcast_segments
		WHERE podcast_id = $1
		ORDER BY start_second
	`
	var segments []models.PodcastSegment
	err := DB.SelectContext(ctx, &segments, query, podcastID)
	return segments, err
}

func InsertPodcastJob(ctx context.Context, job models.PodcastJob) error {
	_, err := DB.ExecContext(ctx, `
		INSERT INTO podcast_jobs (id, podcast_id, step_name, status, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		job.ID, job.PodcastID, job.StepName, job.Status, job.ErrorMessage, job.CreatedAt, job.UpdatedAt)
	return err
}
