package podcast

import (
	"context"
	"fmt"

	"briefcaster/internal/lock"
	"briefcaster/internal/models"
	"briefcaster/internal/quota"

	"github.com/google/uuid"
)

// Quick generate messages.
const (
	MessageCached      = "Cached podcast retrieved successfully"
	MessageCompleted   = "Podcast generated successfully"
	MessageProcessing  = "Podcast script generated, audio generation in progress"
	MessageAudioFailed = "Podcast script generated but audio generation failed"
	MessageFailed      = "Podcast generation failed, please try again"
	MessageStarted     = "Podcast generation started"
)

// QuickRequest asks for a podcast now. Empty TopicIDs means the user's favorites.
type QuickRequest struct {
	UseCached bool    `json:"use_cached"`
	TopicIDs  []int64 `json:"custom_topic_ids"`
}

// QuickResult is the podcast's last known state after a quick generate.
type QuickResult struct {
	Podcast Detail `json:"podcast"`
	Cached  bool   `json:"cached"`
	Message string `json:"message"`
}

// StatusMessage describes a podcast's state to the user.
func StatusMessage(p models.Podcast) string {
	switch p.Status {
	case models.StatusCompleted:
		return MessageCompleted
	case models.StatusProcessing:
		return MessageProcessing
	case models.StatusFailed:
		if p.HasScript() && !p.HasAudio() {
			return MessageAudioFailed
		}
		return MessageFailed
	default:
		return MessageStarted
	}
}

// QuickGenerate serves a same-day cached podcast when allowed and available, otherwise runs
// the full pipeline. Generation failures do not fail the call: the result carries the
// podcast's final state and a message describing it.
func (s *Service) QuickGenerate(ctx context.Context, userID uuid.UUID, req QuickRequest) (QuickResult, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return QuickResult{}, fmt.Errorf("get user: %w", err)
	}
	topicIDs, err := s.ResolveTopicIDs(ctx, userID, req.TopicIDs)
	if err != nil {
		return QuickResult{}, err
	}

	now := s.now()
	if req.UseCached {
		cached, err := s.FindCachedPodcast(ctx, userID, topicIDs, now)
		if err != nil {
			return QuickResult{}, err
		}
		if cached != nil {
			detail, err := s.withRelations(ctx, *cached)
			if err != nil {
				return QuickResult{}, err
			}
			s.logger.Info("served cached podcast", "podcast_id", cached.ID, "user_id", userID)
			return QuickResult{Podcast: detail, Cached: true, Message: MessageCached}, nil
		}
	}

	plan, err := s.store.EffectivePlan(ctx, userID)
	if err != nil {
		return QuickResult{}, fmt.Errorf("get effective plan: %w", err)
	}
	if !req.UseCached && quota.CacheOnly(plan) {
		return QuickResult{}, quotaExceeded(quota.ReasonCacheOnly)
	}

	key := lock.UserDayKey(userID, now)
	ok, err := s.locker.Acquire(ctx, key, s.lockTTL)
	if err != nil {
		return QuickResult{}, fmt.Errorf("acquire generation lock: %w", err)
	}
	if !ok {
		return QuickResult{}, ErrBusy
	}
	defer s.release(key)

	p, err := s.CreateRequest(ctx, userID, topicIDs)
	if err != nil {
		return QuickResult{}, err
	}

	if _, err := s.GenerateScript(ctx, p.ID); err != nil {
		s.logger.Warn("quick generate script step failed", "podcast_id", p.ID, "error", err)
		if err := s.store.MarkFailed(ctx, p.ID); err != nil {
			s.logger.Error("failed to mark podcast failed", "podcast_id", p.ID, "error", err)
		}
	} else if _, err := s.GenerateAudio(ctx, p.ID); err != nil {
		s.logger.Warn("quick generate audio step failed", "podcast_id", p.ID, "error", err)
	}

	detail, err := s.GetWithRelations(ctx, p.ID)
	if err != nil {
		return QuickResult{}, err
	}
	return QuickResult{Podcast: detail, Message: StatusMessage(detail.Podcast)}, nil
}

func (s *Service) release(key string) {
	if err := s.locker.Release(context.Background(), key); err != nil {
		s.logger.Warn("failed to release generation lock", "key", key, "error", err)
	}
}
