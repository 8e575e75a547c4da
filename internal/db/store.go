package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"briefcaster/internal/models"

	"github.com/google/uuid"
)

// Store exposes the package query functions as the storage collaborator of the podcast
// service. Missing rows are reported as models.ErrNotFound.
type Store struct{}

// NewStore returns a Store backed by the global DB connection.
func NewStore() *Store {
	return &Store{}
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	return err
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	user, err := GetUserByID(ctx, id)
	return user, notFound(err)
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	return GetAllUsers(ctx)
}

func (s *Store) FavoriteTopicIDs(ctx context.Context, userID uuid.UUID) ([]int64, error) {
	return GetFavoriteTopicIDs(ctx, userID)
}

func (s *Store) EffectivePlan(ctx context.Context, userID uuid.UUID) (models.Plan, error) {
	plan, err := GetEffectivePlan(ctx, userID)
	return plan, notFound(err)
}

func (s *Store) RecentArticlesForTopics(ctx context.Context, topicIDs []int64, limit int) ([]models.Article, error) {
	return GetRecentArticlesForTopics(ctx, topicIDs, limit)
}

func (s *Store) CreatePodcast(ctx context.Context, p models.Podcast, topicIDs []int64) error {
	return CreatePodcastWithTopics(ctx, p, topicIDs)
}

func (s *Store) GetPodcast(ctx context.Context, id uuid.UUID) (models.Podcast, error) {
	podcast, err := GetPodcastByID(ctx, id)
	return podcast, notFound(err)
}

func (s *Store) PodcastsCreatedBetween(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]models.Podcast, error) {
	return GetPodcastsCreatedBetween(ctx, userID, start, end)
}

func (s *Store) PodcastTopicIDs(ctx context.Context, podcastID uuid.UUID) ([]int64, error) {
	return GetPodcastTopicIDs(ctx, podcastID)
}

func (s *Store) SaveScript(ctx context.Context, podcastID uuid.UUID, script string, articleIDs []int64) error {
	return UpdatePodcastScript(ctx, podcastID, script, articleIDs)
}

func (s *Store) MarkCompleted(ctx context.Context, podcastID uuid.UUID, audioURL string, duration int) error {
	return UpdatePodcastAudioSuccess(ctx, podcastID, audioURL, duration)
}

func (s *Store) MarkFailed(ctx context.Context, podcastID uuid.UUID) error {
	return UpdatePodcastFailed(ctx, podcastID)
}

func (s *Store) DeletePodcast(ctx context.Context, podcastID uuid.UUID) error {
	return DeletePodcast(ctx, podcastID)
}

func (s *Store) ListPodcasts(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Podcast, int, error) {
	return GetPodcastsByUserID(ctx, userID, offset, limit)
}

func (s *Store) PodcastTopics(ctx context.Context, podcastID uuid.UUID) ([]models.Topic, error) {
	return GetPodcastTopics(ctx, podcastID)
}

func (s *Store) PodcastArticles(ctx context.Context, podcastID uuid.UUID) ([]models.Article, error) {
	return GetPodcastArticles(ctx, podcastID)
}

func (s *Store) PodcastSegments(ctx context.Context, podcastID uuid.UUID) ([]models.PodcastSegment, error) {
	return GetPodcastSegments(ctx, podcastID)
}

func (s *Store) RecordJob(ctx context.Context, job models.PodcastJob) error {
	return InsertPodcastJob(ctx, job)
}
