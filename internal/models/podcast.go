package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by storage when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// Status is the lifecycle state of a podcast.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ParseStatus converts a stored value into a Status, rejecting anything outside the closed set.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown podcast status %q", s)
}

// Scan implements sql.Scanner.
func (s *Status) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Status", src)
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value implements driver.Valuer.
func (s Status) Value() (driver.Value, error) {
	if _, err := ParseStatus(string(s)); err != nil {
		return nil, err
	}
	return string(s), nil
}

// Podcast is a generated briefing owned by a single user.
type Podcast struct {
	ID              uuid.UUID `db:"id" json:"id"`
	UserID          uuid.UUID `db:"user_id" json:"user_id"`
	GeneratedScript *string   `db:"generated_script" json:"generated_script"`
	AudioURL        *string   `db:"audio_url" json:"audio_url"`
	DurationSeconds *int      `db:"duration_seconds" json:"duration_seconds"`
	Status          Status    `db:"status" json:"status"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// HasScript reports whether a non-empty script has been persisted.
func (p Podcast) HasScript() bool {
	return p.GeneratedScript != nil && *p.GeneratedScript != ""
}

// HasAudio reports whether an audio location has been persisted.
func (p Podcast) HasAudio() bool {
	return p.AudioURL != nil && *p.AudioURL != ""
}

// PodcastSegment is an optional chapter marker inside a podcast.
type PodcastSegment struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PodcastID   uuid.UUID `db:"podcast_id" json:"podcast_id"`
	Title       string    `db:"title" json:"title"`
	StartSecond int       `db:"start_second" json:"start_second"`
	EndSecond   int       `db:"end_second" json:"end_second"`
}

// Step names a stage of the generation pipeline.
type Step string

const (
	StepScriptGeneration Step = "script_generation"
	StepTTS              Step = "tts"
)

// PodcastJob records the outcome of one pipeline step attempt.
type PodcastJob struct {
	ID           uuid.UUID `db:"id" json:"id"`
	PodcastID    uuid.UUID `db:"podcast_id" json:"podcast_id"`
	StepName     Step      `db:"step_name" json:"step_name"`
	Status       Status    `db:"status" json:"status"`
	ErrorMessage *string   `db:"error_message" json:"error_message"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
