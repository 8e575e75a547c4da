package feed

import (
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"briefcaster/internal/models"

	"github.com/eduncan911/podcast"
	"github.com/google/uuid"
)

const descriptionLimit = 280

// BaseURL prefers the configured public URL and falls back to the request's host.
func BaseURL(r *http.Request, configured string) string {
	if configured != "" {
		return strings.TrimRight(configured, "/")
	}

	scheme := r.URL.Scheme
	if scheme == "" {
		scheme = "https"
		if r.Header.Get("X-Forwarded-Proto") != "" {
			scheme = r.Header.Get("X-Forwarded-Proto")
		}
	}

	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

// GenerateRSS renders the completed podcasts of one user as a podcast feed.
func GenerateRSS(user models.User, podcasts []models.Podcast, baseURL string) (string, error) {
	var updated time.Time
	for _, p := range podcasts {
		if p.CreatedAt.After(updated) {
			updated = p.CreatedAt
		}
	}

	name := user.Username
	if name == "" {
		name = "Your"
	} else {
		name += "'s"
	}
	feed := podcast.New(
		fmt.Sprintf("%s Daily Briefing", name),
		FeedURL(baseURL, user.ID),
		"Daily news briefings generated from your favorite topics.",
		&updated, &updated,
	)
	feed.Language = "en-us"

	for _, p := range podcasts {
		if p.Status != models.StatusCompleted || !p.HasAudio() {
			continue
		}
		created := p.CreatedAt
		item := podcast.Item{
			Title:       fmt.Sprintf("Briefing for %s", created.UTC().Format("January 2, 2006")),
			Description: summarize(p.GeneratedScript),
			GUID:        p.ID.String(),
		}
		item.AddPubDate(&created)
		item.AddEnclosure(absolute(baseURL, *p.AudioURL), podcast.MP3, 0)
		if p.DurationSeconds != nil {
			item.AddDuration(int64(*p.DurationSeconds))
		}
		if _, err := feed.AddItem(item); err != nil {
			return "", fmt.Errorf("add podcast %s to feed: %w", p.ID, err)
		}
	}

	return feed.String(), nil
}

// FeedURL is where a user's feed is published.
func FeedURL(baseURL string, userID uuid.UUID) string {
	return fmt.Sprintf("%s/rss/%s", baseURL, userID)
}

func absolute(baseURL, location string) string {
	if strings.HasPrefix(location, "/") {
		return baseURL + location
	}
	return location
}

func summarize(script *string) string {
	if script == nil || strings.TrimSpace(*script) == "" {
		return "Daily news briefing."
	}
	s := strings.Join(strings.Fields(*script), " ")
	if len(s) <= descriptionLimit {
		return s
	}
	cut := descriptionLimit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut]) + "..."
}
