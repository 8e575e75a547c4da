package podcast

import (
	"context"
	"fmt"

	"briefcaster/internal/lock"
	"briefcaster/internal/models"
	"briefcaster/internal/quota"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Outcome statuses and skip reasons of the daily batch.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"

	SkipNoFavoriteTopics  = "no_favorite_topics"
	SkipAlreadyHasPodcast = "already_has_podcast_today"
	SkipInProgress        = "generation_in_progress"
)

// UserOutcome is the result of generating for one user.
type UserOutcome struct {
	UserID      uuid.UUID  `json:"user_id"`
	Status      string     `json:"status"`
	Reason      string     `json:"reason,omitempty"`
	PodcastID   *uuid.UUID `json:"podcast_id,omitempty"`
	TopicsCount int        `json:"topics_count,omitempty"`
}

// BatchReport aggregates one daily run.
type BatchReport struct {
	TotalUsers int           `json:"total_users"`
	Successful int           `json:"successful_generations"`
	Failed     int           `json:"failed_generations"`
	Skipped    int           `json:"skipped_users"`
	Details    []UserOutcome `json:"details"`
}

// RunDaily generates one podcast for every eligible user. A failure for one user is
// recorded in the report and never stops the run. Details follow the user listing order.
func (s *Service) RunDaily(ctx context.Context) (BatchReport, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return BatchReport{}, fmt.Errorf("list users: %w", err)
	}
	s.logger.Info("daily podcast generation started", "users", len(users), "concurrency", s.concurrency)

	details := make([]UserOutcome, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, user := range users {
		g.Go(func() error {
			details[i] = s.dailyForUser(gctx, user)
			return nil
		})
	}
	_ = g.Wait()

	report := BatchReport{TotalUsers: len(users), Details: details}
	for _, d := range details {
		switch d.Status {
		case OutcomeSuccess:
			report.Successful++
		case OutcomeFailed:
			report.Failed++
		case OutcomeSkipped:
			report.Skipped++
		}
	}
	s.logger.Info("daily podcast generation finished",
		"total", report.TotalUsers,
		"successful", report.Successful,
		"failed", report.Failed,
		"skipped", report.Skipped)
	return report, nil
}

func (s *Service) dailyForUser(ctx context.Context, user models.User) UserOutcome {
	topicIDs, outcome, ok := s.batchTopics(ctx, user.ID)
	if !ok {
		return outcome
	}

	now := s.now()
	start, end := dayBounds(now)
	todays, err := s.store.PodcastsCreatedBetween(ctx, user.ID, start, end)
	if err != nil {
		return failed(user.ID, err)
	}
	if len(todays) > 0 {
		s.logger.Info("user already has podcast today, skipping", "user_id", user.ID)
		return skipped(user.ID, SkipAlreadyHasPodcast)
	}

	key := lock.UserDayKey(user.ID, now)
	held, err := s.locker.Acquire(ctx, key, s.lockTTL)
	if err != nil {
		return failed(user.ID, err)
	}
	if !held {
		return skipped(user.ID, SkipInProgress)
	}
	defer s.release(key)

	return s.generate(ctx, user.ID, topicIDs)
}

// GenerateForUser runs the pipeline once for a single user regardless of whether they
// already have a podcast today. The daily plan cap still applies.
func (s *Service) GenerateForUser(ctx context.Context, userID uuid.UUID) (UserOutcome, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return UserOutcome{}, fmt.Errorf("get user: %w", err)
	}
	topicIDs, outcome, ok := s.batchTopics(ctx, userID)
	if !ok {
		return outcome, nil
	}

	key := lock.UserDayKey(userID, s.now())
	held, err := s.locker.Acquire(ctx, key, s.lockTTL)
	if err != nil {
		return UserOutcome{}, fmt.Errorf("acquire generation lock: %w", err)
	}
	if !held {
		return skipped(userID, SkipInProgress), nil
	}
	defer s.release(key)

	return s.generate(ctx, userID, topicIDs), nil
}

// batchTopics resolves the favorites a scheduled run generates for, keeping only the first
// ones a cache-only plan may request. ok is false when the returned outcome is final.
func (s *Service) batchTopics(ctx context.Context, userID uuid.UUID) ([]int64, UserOutcome, bool) {
	favorites, err := s.store.FavoriteTopicIDs(ctx, userID)
	if err != nil {
		return nil, failed(userID, err), false
	}
	topicIDs := dedupe(favorites)
	if len(topicIDs) == 0 {
		s.logger.Info("user has no favorite topics, skipping", "user_id", userID)
		return nil, skipped(userID, SkipNoFavoriteTopics), false
	}

	plan, err := s.store.EffectivePlan(ctx, userID)
	if err != nil {
		return nil, failed(userID, err), false
	}
	if limit := quota.LimitsFor(plan).TopicCount; limit >= 0 && len(topicIDs) > limit {
		topicIDs = topicIDs[:limit]
		s.logger.Info("limited topics for plan", "user_id", userID, "plan", plan, "topics", limit)
	}
	return topicIDs, UserOutcome{}, true
}

func (s *Service) generate(ctx context.Context, userID uuid.UUID, topicIDs []int64) UserOutcome {
	p, err := s.CreateRequest(ctx, userID, topicIDs)
	if err != nil {
		return failed(userID, err)
	}
	if _, err := s.GenerateScript(ctx, p.ID); err != nil {
		s.logger.Error("failed to generate script for user", "user_id", userID, "podcast_id", p.ID, "error", err)
		return failedPodcast(userID, p.ID, err)
	}
	if _, err := s.GenerateAudio(ctx, p.ID); err != nil {
		s.logger.Error("failed to generate audio for user", "user_id", userID, "podcast_id", p.ID, "error", err)
		return failedPodcast(userID, p.ID, err)
	}
	s.logger.Info("generated podcast for user", "user_id", userID, "podcast_id", p.ID)
	id := p.ID
	return UserOutcome{UserID: userID, Status: OutcomeSuccess, PodcastID: &id, TopicsCount: len(topicIDs)}
}

func skipped(userID uuid.UUID, reason string) UserOutcome {
	return UserOutcome{UserID: userID, Status: OutcomeSkipped, Reason: reason}
}

func failed(userID uuid.UUID, err error) UserOutcome {
	return UserOutcome{UserID: userID, Status: OutcomeFailed, Reason: Reason(err)}
}

func failedPodcast(userID, podcastID uuid.UUID, err error) UserOutcome {
	o := failed(userID, err)
	o.PodcastID = &podcastID
	return o
}
