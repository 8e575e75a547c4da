package podcast

import (
	"context"
	"testing"
	"time"

	"briefcaster/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuickGenerateFreeUserMustUseCache(t *testing.T) {
	f := newFixture(t)
	user := f.store.addUser(models.PlanFree, 1, 2)
	f.store.addArticles(1, 5, f.now)

	_, err := f.svc.QuickGenerate(context.Background(), user, QuickRequest{UseCached: false})
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, "free plan must use cache", Reason(err))
	assert.Zero(t, f.store.writes)
}

func TestQuickGenerateCacheMissRunsPipeline(t *testing.T) {
	f := newFixture(t)
	user := f.store.addUser(models.PlanFree, 1, 2)
	f.store.addArticles(1, 5, f.now)

	res, err := f.svc.QuickGenerate(context.Background(), user, QuickRequest{UseCached: true})
	require.NoError(t, err)

	assert.False(t, res.Cached)
	assert.Equal(t, MessageCompleted, res.Message)
	assert.Equal(t, models.StatusCompleted, res.Podcast.Status)
	require.NotNil(t, res.Podcast.AudioURL)
	assert.Len(t, res.Podcast.Topics, 2)
	assert.Len(t, res.Podcast.Articles, 5)
}

func TestQuickGenerateCacheHit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.store.addUser(models.PlanFree, 1, 2)
	f.store.addArticles(1, 5, f.now)

	first, err := f.svc.QuickGenerate(ctx, user, QuickRequest{UseCached: true})
	require.NoError(t, err)

	f.now = f.now.Add(time.Hour)
	second, err := f.svc.QuickGenerate(ctx, user, QuickRequest{UseCached: true, TopicIDs: []int64{2, 1}})
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, MessageCached, second.Message)
	assert.Equal(t, first.Podcast.ID, second.Podcast.ID)
	assert.Equal(t, 1, f.scripts.callCount())
}

func TestQuickGenerateCacheMissStillAppliesDailyCap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.store.addUser(models.PlanFree, 1, 2)
	f.store.addArticles(1, 5, f.now)

	_, err := f.svc.QuickGenerate(ctx, user, QuickRequest{UseCached: true, TopicIDs: []int64{1}})
	require.NoError(t, err)

	_, err = f.svc.QuickGenerate(ctx, user, QuickRequest{UseCached: true, TopicIDs: []int64{2}})
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, "daily cap exceeded", Reason(err))
}

func TestQuickGenerateAudioFailure(t *testing.T) {
	f := newFixture(t)
	user := f.store.addUser(models.PlanPaid, 1)
	f.store.addArticles(1, 5, f.now)
	f.synth.err = errUpstream

	res, err := f.svc.QuickGenerate(context.Background(), user, QuickRequest{})
	require.NoError(t, err)

	assert.Equal(t, models.StatusFailed, res.Podcast.Status)
	assert.True(t, res.Podcast.HasScript())
	assert.Nil(t, res.Podcast.AudioURL)
	assert.Equal(t, MessageAudioFailed, res.Message)
}

func TestQuickGenerateScriptFailure(t *testing.T) {
	f := newFixture(t)
	user := f.store.addUser(models.PlanPaid, 1)
	f.store.addArticles(1, 5, f.now)
	f.scripts.err = errUpstream

	res, err := f.svc.QuickGenerate(context.Background(), user, QuickRequest{})
	require.NoError(t, err)

	assert.Equal(t, models.StatusFailed, res.Podcast.Status)
	assert.False(t, res.Podcast.HasScript())
	assert.Equal(t, MessageFailed, res.Message)
	assert.Zero(t, f.synth.calls)
}

func TestQuickGenerateRejectsBeforeWriting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.QuickGenerate(ctx, uuid.New(), QuickRequest{UseCached: true})
	assert.ErrorIs(t, err, ErrNotFound)

	noFavorites := f.store.addUser(models.PlanPaid)
	_, err = f.svc.QuickGenerate(ctx, noFavorites, QuickRequest{UseCached: true})
	assert.ErrorIs(t, err, ErrInvalidInput)

	paid := f.store.addUser(models.PlanPaid, 1, 2, 3)
	_, err = f.svc.QuickGenerate(ctx, paid, QuickRequest{TopicIDs: []int64{1, 2, 3, 4, 5}})
	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.Equal(t, "topic not owned", Reason(err))

	assert.Zero(t, f.store.writes)
}

func TestQuickGenerateBusy(t *testing.T) {
	f := newFixture(t, WithLocker(denyLocker{}, time.Minute))
	user := f.store.addUser(models.PlanPaid, 1)

	_, err := f.svc.QuickGenerate(context.Background(), user, QuickRequest{})
	assert.ErrorIs(t, err, ErrBusy)
	assert.Zero(t, f.store.writes)
}

func TestStatusMessage(t *testing.T) {
	script := "s"
	url := "/audio/a.mp3"
	assert.Equal(t, MessageCompleted, StatusMessage(models.Podcast{Status: models.StatusCompleted, GeneratedScript: &script, AudioURL: &url}))
	assert.Equal(t, MessageProcessing, StatusMessage(models.Podcast{Status: models.StatusProcessing, GeneratedScript: &script}))
	assert.Equal(t, MessageAudioFailed, StatusMessage(models.Podcast{Status: models.StatusFailed, GeneratedScript: &script}))
	assert.Equal(t, MessageFailed, StatusMessage(models.Podcast{Status: models.StatusFailed}))
	assert.Equal(t, MessageStarted, StatusMessage(models.Podcast{Status: models.StatusPending}))
}
