package podcast

import (
	"context"
	"time"

	"briefcaster/internal/models"

	"github.com/google/uuid"
)

// Users resolves accounts, their favorite topics and their effective plan.
type Users interface {
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	// FavoriteTopicIDs is ordered by when each topic was favorited.
	FavoriteTopicIDs(ctx context.Context, userID uuid.UUID) ([]int64, error)
	EffectivePlan(ctx context.Context, userID uuid.UUID) (models.Plan, error)
}

// Articles returns recent news for a topic set, newest first.
type Articles interface {
	RecentArticlesForTopics(ctx context.Context, topicIDs []int64, limit int) ([]models.Article, error)
}

// Podcasts persists podcasts and their associations. Each call commits on its own.
type Podcasts interface {
	CreatePodcast(ctx context.Context, p models.Podcast, topicIDs []int64) error
	GetPodcast(ctx context.Context, id uuid.UUID) (models.Podcast, error)
	PodcastsCreatedBetween(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]models.Podcast, error)
	PodcastTopicIDs(ctx context.Context, podcastID uuid.UUID) ([]int64, error)
	SaveScript(ctx context.Context, podcastID uuid.UUID, script string, articleIDs []int64) error
	MarkCompleted(ctx context.Context, podcastID uuid.UUID, audioURL string, duration int) error
	MarkFailed(ctx context.Context, podcastID uuid.UUID) error
	DeletePodcast(ctx context.Context, podcastID uuid.UUID) error
	ListPodcasts(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Podcast, int, error)
	PodcastTopics(ctx context.Context, podcastID uuid.UUID) ([]models.Topic, error)
	PodcastArticles(ctx context.Context, podcastID uuid.UUID) ([]models.Article, error)
	PodcastSegments(ctx context.Context, podcastID uuid.UUID) ([]models.PodcastSegment, error)
	RecordJob(ctx context.Context, job models.PodcastJob) error
}

// Store is everything the Service reads and writes. *db.Store implements it.
type Store interface {
	Users
	Articles
	Podcasts
}
