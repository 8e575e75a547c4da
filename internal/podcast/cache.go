package podcast

import (
	"context"
	"fmt"
	"time"

	"briefcaster/internal/models"

	"github.com/google/uuid"
)

// dayBounds returns [00:00, next 00:00) of t's UTC calendar day.
func dayBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

func sameSet(a, b []int64) bool {
	as := make(map[int64]struct{}, len(a))
	for _, id := range a {
		as[id] = struct{}{}
	}
	bs := make(map[int64]struct{}, len(b))
	for _, id := range b {
		if _, ok := as[id]; !ok {
			return false
		}
		bs[id] = struct{}{}
	}
	return len(as) == len(bs)
}

// FindCachedPodcast returns the user's first completed podcast created on today's UTC day
// whose topic set equals topicIDs, or nil. Concurrent callers may both miss.
func (s *Service) FindCachedPodcast(ctx context.Context, userID uuid.UUID, topicIDs []int64, today time.Time) (*models.Podcast, error) {
	start, end := dayBounds(today)
	podcasts, err := s.store.PodcastsCreatedBetween(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load today's podcasts: %w", err)
	}
	for _, p := range podcasts {
		if p.Status != models.StatusCompleted {
			continue
		}
		ids, err := s.store.PodcastTopicIDs(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("load podcast topics: %w", err)
		}
		if sameSet(ids, topicIDs) {
			hit := p
			return &hit, nil
		}
	}
	return nil, nil
}
