// Package podcast orchestrates briefing generation: quota gating, the podcast state
// machine, the same-day cache and the daily batch.
package podcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"briefcaster/internal/audio"
	"briefcaster/internal/lock"
	"briefcaster/internal/models"
	"briefcaster/internal/quota"
	"briefcaster/internal/storage"

	"github.com/google/uuid"
)

const (
	// ArticleLimit is how many recent articles are loaded for a script.
	ArticleLimit = 20

	defaultScriptTimeout = 90 * time.Second
	defaultLockTTL       = 15 * time.Minute
	defaultPerPage       = 20
	maxPerPage           = 100
)

// ScriptGenerator writes a spoken script from articles.
type ScriptGenerator interface {
	Generate(ctx context.Context, articles []models.Article) (string, error)
}

// Synthesizer renders a script to audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (audio.Speech, error)
}

// AudioResult is the outcome of a successful audio step.
type AudioResult struct {
	AudioURL        string `json:"audio_url"`
	DurationSeconds int    `json:"duration_seconds"`
}

// Detail is a podcast with its associations loaded.
type Detail struct {
	models.Podcast
	Topics   []models.Topic          `json:"topics"`
	Articles []models.Article        `json:"articles"`
	Segments []models.PodcastSegment `json:"segments"`
}

// Page is one page of a user's podcasts.
type Page struct {
	Items   []models.Podcast `json:"items"`
	Total   int              `json:"total"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
}

// Service is the only writer of podcast status, script and audio location.
type Service struct {
	store       Store
	scripts     ScriptGenerator
	synthesizer Synthesizer
	artifacts   storage.ArtifactStore

	logger        *slog.Logger
	now           func() time.Time
	locker        lock.Locker
	lockTTL       time.Duration
	voice         string
	scriptTimeout time.Duration
	concurrency   int
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocker enables per-user, per-day advisory locking of generation.
func WithLocker(l lock.Locker, ttl time.Duration) Option {
	return func(s *Service) {
		s.locker = l
		if ttl > 0 {
			s.lockTTL = ttl
		}
	}
}

func WithVoice(voice string) Option {
	return func(s *Service) { s.voice = voice }
}

func WithScriptTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.scriptTimeout = d
		}
	}
}

// WithBatchConcurrency bounds how many users the daily batch processes at once.
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func NewService(store Store, scripts ScriptGenerator, synthesizer Synthesizer, artifacts storage.ArtifactStore, opts ...Option) *Service {
	s := &Service{
		store:         store,
		scripts:       scripts,
		synthesizer:   synthesizer,
		artifacts:     artifacts,
		logger:        slog.Default(),
		now:           func() time.Time { return time.Now().UTC() },
		locker:        lock.Noop{},
		lockTTL:       defaultLockTTL,
		scriptTimeout: defaultScriptTimeout,
		concurrency:   1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// dedupe drops repeated IDs, keeping first occurrences in order.
func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ResolveTopicIDs returns the de-duplicated custom topics, or the user's favorites when
// custom is empty.
func (s *Service) ResolveTopicIDs(ctx context.Context, userID uuid.UUID, custom []int64) ([]int64, error) {
	favorites, err := s.store.FavoriteTopicIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load favorite topics: %w", err)
	}
	return resolveTopics(custom, favorites)
}

func resolveTopics(custom, favorites []int64) ([]int64, error) {
	topicIDs := dedupe(custom)
	if len(topicIDs) == 0 {
		topicIDs = dedupe(favorites)
	}
	if len(topicIDs) == 0 {
		return nil, invalidInput("no topics selected")
	}
	return topicIDs, nil
}

// CreateRequest applies the quota policy and persists a pending podcast with its topic set.
func (s *Service) CreateRequest(ctx context.Context, userID uuid.UUID, topicIDs []int64) (models.Podcast, error) {
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return models.Podcast{}, fmt.Errorf("get user: %w", err)
	}
	favorites, err := s.store.FavoriteTopicIDs(ctx, userID)
	if err != nil {
		return models.Podcast{}, fmt.Errorf("load favorite topics: %w", err)
	}
	topicIDs, err = resolveTopics(topicIDs, favorites)
	if err != nil {
		return models.Podcast{}, err
	}

	now := s.now()
	plan, err := s.store.EffectivePlan(ctx, userID)
	if err != nil {
		return models.Podcast{}, fmt.Errorf("get effective plan: %w", err)
	}
	todays := 0
	if quota.LimitsFor(plan).DailyCount >= 0 {
		start, end := dayBounds(now)
		existing, err := s.store.PodcastsCreatedBetween(ctx, userID, start, end)
		if err != nil {
			return models.Podcast{}, fmt.Errorf("count today's podcasts: %w", err)
		}
		todays = len(existing)
	}

	decision := quota.Evaluate(quota.Request{
		Plan:             plan,
		TopicIDs:         topicIDs,
		FavoriteTopicIDs: favorites,
		TodaysCount:      todays,
	})
	if !decision.Allowed {
		return models.Podcast{}, quotaExceeded(decision.Reason)
	}

	p := models.Podcast{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    models.StatusPending,
		CreatedAt: now,
	}
	if err := s.store.CreatePodcast(ctx, p, topicIDs); err != nil {
		return models.Podcast{}, fmt.Errorf("create podcast: %w", err)
	}
	s.logger.Info("podcast requested", "podcast_id", p.ID, "user_id", userID, "topics", len(topicIDs), "plan", plan)
	return p, nil
}

// GenerateScript writes the script from the topic set's recent articles and moves the
// podcast to processing. On upstream failure the podcast is left unchanged.
func (s *Service) GenerateScript(ctx context.Context, podcastID uuid.UUID) (string, error) {
	p, err := s.store.GetPodcast(ctx, podcastID)
	if err != nil {
		return "", fmt.Errorf("get podcast: %w", err)
	}
	if p.Status == models.StatusCompleted {
		return "", invalidInput("podcast is already completed")
	}

	topicIDs, err := s.store.PodcastTopicIDs(ctx, podcastID)
	if err != nil {
		return "", fmt.Errorf("load podcast topics: %w", err)
	}
	articles, err := s.store.RecentArticlesForTopics(ctx, topicIDs, ArticleLimit)
	if err != nil {
		return "", fmt.Errorf("load articles: %w", err)
	}
	if len(articles) == 0 {
		return "", invalidInput("no articles found for selected topics")
	}

	started := s.now()
	scriptCtx, cancel := context.WithTimeout(ctx, s.scriptTimeout)
	script, err := s.scripts.Generate(scriptCtx, articles)
	cancel()
	if err != nil {
		s.recordJob(ctx, podcastID, models.StepScriptGeneration, started, err)
		s.logger.Error("failed to generate script", "podcast_id", podcastID, "error", err)
		return "", fmt.Errorf("%w: script generation: %w", ErrGenerationFailed, err)
	}

	articleIDs := make([]int64, len(articles))
	for i, a := range articles {
		articleIDs[i] = a.ID
	}
	if err := s.store.SaveScript(ctx, podcastID, script, articleIDs); err != nil {
		return "", fmt.Errorf("save script: %w", err)
	}
	s.recordJob(ctx, podcastID, models.StepScriptGeneration, started, nil)
	s.logger.Info("script generated", "podcast_id", podcastID, "articles", len(articles))
	return script, nil
}

// GenerateAudio renders the stored script, publishes the artifact and completes the
// podcast. On failure the podcast is marked failed and its script is kept.
func (s *Service) GenerateAudio(ctx context.Context, podcastID uuid.UUID) (AudioResult, error) {
	p, err := s.store.GetPodcast(ctx, podcastID)
	if err != nil {
		return AudioResult{}, fmt.Errorf("get podcast: %w", err)
	}
	if p.Status == models.StatusCompleted && p.HasAudio() {
		result := AudioResult{AudioURL: *p.AudioURL}
		if p.DurationSeconds != nil {
			result.DurationSeconds = *p.DurationSeconds
		}
		return result, nil
	}
	if !p.HasScript() {
		return AudioResult{}, invalidInput("podcast has no script")
	}

	started := s.now()
	speech, err := s.synthesizer.Synthesize(ctx, *p.GeneratedScript, s.voice)
	if err != nil {
		return AudioResult{}, s.failAudio(ctx, podcastID, started, fmt.Errorf("synthesize: %w", err))
	}
	location, err := s.artifacts.Save(ctx, storage.ArtifactName(podcastID, speech.Ext), speech.Data, speech.ContentType)
	if err != nil {
		return AudioResult{}, s.failAudio(ctx, podcastID, started, fmt.Errorf("store artifact: %w", err))
	}
	if err := s.store.MarkCompleted(ctx, podcastID, location, speech.DurationSeconds); err != nil {
		err = fmt.Errorf("mark podcast completed: %w", err)
		if delErr := s.artifacts.Delete(ctx, location); delErr != nil {
			s.logger.Warn("failed to delete orphaned audio artifact", "podcast_id", podcastID, "location", location, "error", delErr)
		}
		s.markAudioFailed(ctx, podcastID, started, err)
		return AudioResult{}, err
	}
	s.recordJob(ctx, podcastID, models.StepTTS, started, nil)
	s.logger.Info("audio generated", "podcast_id", podcastID, "duration_seconds", speech.DurationSeconds)
	return AudioResult{AudioURL: location, DurationSeconds: speech.DurationSeconds}, nil
}

func (s *Service) failAudio(ctx context.Context, podcastID uuid.UUID, started time.Time, cause error) error {
	s.markAudioFailed(ctx, podcastID, started, cause)
	return fmt.Errorf("%w: audio generation: %w", ErrGenerationFailed, cause)
}

// markAudioFailed moves the podcast to failed and logs the tts step. The script is kept.
func (s *Service) markAudioFailed(ctx context.Context, podcastID uuid.UUID, started time.Time, cause error) {
	s.logger.Error("failed to generate audio", "podcast_id", podcastID, "error", cause)
	if err := s.store.MarkFailed(ctx, podcastID); err != nil {
		s.logger.Error("failed to mark podcast failed", "podcast_id", podcastID, "error", err)
	}
	s.recordJob(ctx, podcastID, models.StepTTS, started, cause)
}

// recordJob appends a step outcome to the job log. Failures are only logged.
func (s *Service) recordJob(ctx context.Context, podcastID uuid.UUID, step models.Step, started time.Time, stepErr error) {
	job := models.PodcastJob{
		ID:        uuid.New(),
		PodcastID: podcastID,
		StepName:  step,
		Status:    models.StatusCompleted,
		CreatedAt: started,
		UpdatedAt: s.now(),
	}
	if stepErr != nil {
		msg := stepErr.Error()
		job.Status = models.StatusFailed
		job.ErrorMessage = &msg
	}
	if err := s.store.RecordJob(ctx, job); err != nil {
		s.logger.Warn("failed to record podcast job", "podcast_id", podcastID, "step", step, "error", err)
	}
}

// DeletePodcast removes the podcast, its associations and its audio artifact. It reports
// false when the podcast does not exist.
func (s *Service) DeletePodcast(ctx context.Context, podcastID uuid.UUID) (bool, error) {
	p, err := s.store.GetPodcast(ctx, podcastID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get podcast: %w", err)
	}
	if err := s.store.DeletePodcast(ctx, podcastID); err != nil {
		return false, fmt.Errorf("delete podcast: %w", err)
	}
	if p.HasAudio() {
		if err := s.artifacts.Delete(ctx, *p.AudioURL); err != nil {
			s.logger.Warn("failed to delete audio artifact", "podcast_id", podcastID, "audio_url", *p.AudioURL, "error", err)
		}
	}
	s.logger.Info("podcast deleted", "podcast_id", podcastID)
	return true, nil
}

func (s *Service) GetByID(ctx context.Context, podcastID uuid.UUID) (models.Podcast, error) {
	p, err := s.store.GetPodcast(ctx, podcastID)
	if err != nil {
		return models.Podcast{}, fmt.Errorf("get podcast: %w", err)
	}
	return p, nil
}

// GetOwned is GetByID restricted to podcasts owned by userID. Podcasts of other users
// are reported as not found.
func (s *Service) GetOwned(ctx context.Context, userID, podcastID uuid.UUID) (models.Podcast, error) {
	p, err := s.GetByID(ctx, podcastID)
	if err != nil {
		return models.Podcast{}, err
	}
	if p.UserID != userID {
		return models.Podcast{}, fmt.Errorf("get podcast: %w", ErrNotFound)
	}
	return p, nil
}

func (s *Service) GetWithRelations(ctx context.Context, podcastID uuid.UUID) (Detail, error) {
	p, err := s.GetByID(ctx, podcastID)
	if err != nil {
		return Detail{}, err
	}
	return s.withRelations(ctx, p)
}

func (s *Service) withRelations(ctx context.Context, p models.Podcast) (Detail, error) {
	d := Detail{Podcast: p}
	var err error
	if d.Topics, err = s.store.PodcastTopics(ctx, p.ID); err != nil {
		return Detail{}, fmt.Errorf("load topics: %w", err)
	}
	if d.Articles, err = s.store.PodcastArticles(ctx, p.ID); err != nil {
		return Detail{}, fmt.Errorf("load articles: %w", err)
	}
	if d.Segments, err = s.store.PodcastSegments(ctx, p.ID); err != nil {
		return Detail{}, fmt.Errorf("load segments: %w", err)
	}
	return d, nil
}

// ListForUser returns a page of the user's podcasts, newest first. Pages start at 1.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, page, perPage int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	items, total, err := s.store.ListPodcasts(ctx, userID, (page-1)*perPage, perPage)
	if err != nil {
		return Page{}, fmt.Errorf("list podcasts: %w", err)
	}
	if items == nil {
		items = []models.Podcast{}
	}
	return Page{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}
