package podcast

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"briefcaster/internal/audio"
	"briefcaster/internal/lock"
	"briefcaster/internal/models"
	"briefcaster/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store.
type memStore struct {
	mu sync.Mutex

	users     map[uuid.UUID]models.User
	order     []uuid.UUID
	favorites map[uuid.UUID][]int64
	activeSub map[uuid.UUID]bool
	articles  map[int64][]models.Article

	podcasts        map[uuid.UUID]models.Podcast
	podcastTopics   map[uuid.UUID][]int64
	podcastArticles map[uuid.UUID][]int64
	segments        map[uuid.UUID][]models.PodcastSegment
	jobs            []models.PodcastJob

	writes       int
	markFailures int
	completeErr  error
}

func newMemStore() *memStore {
	return &memStore{
		users:           map[uuid.UUID]models.User{},
		favorites:       map[uuid.UUID][]int64{},
		activeSub:       map[uuid.UUID]bool{},
		articles:        map[int64][]models.Article{},
		podcasts:        map[uuid.UUID]models.Podcast{},
		podcastTopics:   map[uuid.UUID][]int64{},
		podcastArticles: map[uuid.UUID][]int64{},
		segments:        map[uuid.UUID][]models.PodcastSegment{},
	}
}

func (m *memStore) addUser(plan models.Plan, favorites ...int64) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.users[id] = models.User{ID: id, Username: id.String()[:8], PlanType: plan}
	m.order = append(m.order, id)
	m.favorites[id] = favorites
	return id
}

// addArticles gives topic n articles, newest first.
func (m *memStore) addArticles(topic int64, n int, base time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < n; i++ {
		published := base.Add(-time.Duration(i) * time.Minute)
		summary := "summary"
		m.articles[topic] = append(m.articles[topic], models.Article{
			ID:          topic*1000 + int64(i),
			TopicID:     topic,
			Title:       "Story",
			SummaryText: &summary,
			PublishedAt: &published,
		})
	}
}

// insert stores a podcast directly, bypassing the service.
func (m *memStore) insert(p models.Podcast, topics ...int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.podcasts[p.ID] = p
	m.podcastTopics[p.ID] = topics
}

func (m *memStore) podcast(id uuid.UUID) models.Podcast {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.podcasts[id]
}

func (m *memStore) jobsFor(id uuid.UUID) []models.PodcastJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PodcastJob
	for _, j := range m.jobs {
		if j.PodcastID == id {
			out = append(out, j)
		}
	}
	return out
}

func (m *memStore) GetUser(_ context.Context, id uuid.UUID) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return u, nil
}

func (m *memStore) ListUsers(context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.users[id])
	}
	return out, nil
}

func (m *memStore) FavoriteTopicIDs(_ context.Context, userID uuid.UUID) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.favorites[userID]...), nil
}

func (m *memStore) EffectivePlan(_ context.Context, userID uuid.UUID) (models.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return "", models.ErrNotFound
	}
	if m.activeSub[userID] {
		return models.PlanPaid, nil
	}
	return u.PlanType, nil
}

func (m *memStore) RecentArticlesForTopics(_ context.Context, topicIDs []int64, limit int) ([]models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Article
	for _, t := range topicIDs {
		out = append(out, m.articles[t]...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PublishedAt.After(*out[j].PublishedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) CreatePodcast(_ context.Context, p models.Podcast, topicIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.podcasts[p.ID] = p
	m.podcastTopics[p.ID] = append([]int64(nil), topicIDs...)
	return nil
}

func (m *memStore) GetPodcast(_ context.Context, id uuid.UUID) (models.Podcast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.podcasts[id]
	if !ok {
		return models.Podcast{}, models.ErrNotFound
	}
	return p, nil
}

func (m *memStore) PodcastsCreatedBetween(_ context.Context, userID uuid.UUID, start, end time.Time) ([]models.Podcast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Podcast
	for _, p := range m.podcasts {
		if p.UserID == userID && !p.CreatedAt.Before(start) && p.CreatedAt.Before(end) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) PodcastTopicIDs(_ context.Context, id uuid.UUID) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.podcastTopics[id]...), nil
}

func (m *memStore) SaveScript(_ context.Context, id uuid.UUID, script string, articleIDs []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.podcasts[id]
	if !ok {
		return models.ErrNotFound
	}
	m.writes++
	p.GeneratedScript = &script
	p.Status = models.StatusProcessing
	m.podcasts[id] = p
	m.podcastArticles[id] = append([]int64(nil), articleIDs...)
	return nil
}

func (m *memStore) MarkCompleted(_ context.Context, id uuid.UUID, audioURL string, duration int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.completeErr != nil {
		return m.completeErr
	}
	p := m.podcasts[id]
	m.writes++
	p.Status = models.StatusCompleted
	p.AudioURL = &audioURL
	p.DurationSeconds = &duration
	m.podcasts[id] = p
	return nil
}

func (m *memStore) MarkFailed(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.podcasts[id]
	m.writes++
	m.markFailures++
	p.Status = models.StatusFailed
	m.podcasts[id] = p
	return nil
}

func (m *memStore) DeletePodcast(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	delete(m.podcasts, id)
	delete(m.podcastTopics, id)
	delete(m.podcastArticles, id)
	delete(m.segments, id)
	kept := m.jobs[:0]
	for _, j := range m.jobs {
		if j.PodcastID != id {
			kept = append(kept, j)
		}
	}
	m.jobs = kept
	return nil
}

func (m *memStore) ListPodcasts(_ context.Context, userID uuid.UUID, offset, limit int) ([]models.Podcast, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []models.Podcast
	for _, p := range m.podcasts {
		if p.UserID == userID {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *memStore) PodcastTopics(_ context.Context, id uuid.UUID) ([]models.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Topic
	for _, t := range m.podcastTopics[id] {
		out = append(out, models.Topic{ID: t})
	}
	return out, nil
}

func (m *memStore) PodcastArticles(_ context.Context, id uuid.UUID) ([]models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Article
	for _, a := range m.podcastArticles[id] {
		out = append(out, models.Article{ID: a})
	}
	return out, nil
}

func (m *memStore) PodcastSegments(_ context.Context, id uuid.UUID) ([]models.PodcastSegment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.segments[id], nil
}

func (m *memStore) RecordJob(_ context.Context, job models.PodcastJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
	return nil
}

type fakeScripts struct {
	mu       sync.Mutex
	calls    int
	articles []models.Article
	err      error
	block    bool
}

func (f *fakeScripts) Generate(ctx context.Context, articles []models.Article) (string, error) {
	f.mu.Lock()
	f.calls++
	f.articles = articles
	err, block := f.err, f.block
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return "Good morning and welcome to the briefing.", nil
}

func (f *fakeScripts) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSynth struct {
	mu    sync.Mutex
	calls int
	voice string
	err   error
}

func (f *fakeSynth) Synthesize(_ context.Context, text, voice string) (audio.Speech, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.voice = voice
	if f.err != nil {
		return audio.Speech{}, f.err
	}
	return audio.Speech{Data: []byte("mp3:" + text), Ext: "mp3", ContentType: audio.ContentType, DurationSeconds: 421}, nil
}

// denyLocker never grants a lock.
type denyLocker struct{}

func (denyLocker) Acquire(context.Context, string, time.Duration) (bool, error) { return false, nil }
func (denyLocker) Release(context.Context, string) error                        { return nil }

var _ lock.Locker = denyLocker{}

var errUpstream = errors.New("upstream unavailable")

type fixture struct {
	store     *memStore
	scripts   *fakeScripts
	synth     *fakeSynth
	artifacts *storage.Local
	now       time.Time
	svc       *Service
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	artifacts, err := storage.NewLocal(t.TempDir(), "")
	require.NoError(t, err)
	f := &fixture{
		store:     newMemStore(),
		scripts:   &fakeScripts{},
		synth:     &fakeSynth{},
		artifacts: artifacts,
		now:       time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC),
	}
	all := append([]Option{
		WithClock(func() time.Time { return f.now }),
		WithVoice("en-US-Neural2-F"),
	}, opts...)
	f.svc = NewService(f.store, f.scripts, f.synth, artifacts, all...)
	return f
}
