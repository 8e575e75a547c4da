package models

import "time"

// Topic is a news category a user can favorite.
type Topic struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Slug string `db:"slug" json:"slug"`
}

// Article is an aggregated news item classified into a topic.
type Article struct {
	ID          int64      `db:"id" json:"id"`
	SourceID    int64      `db:"source_id" json:"source_id"`
	TopicID     int64      `db:"topic_id" json:"topic_id"`
	Title       string     `db:"title" json:"title"`
	SummaryText *string    `db:"summary_text" json:"summary_text"`
	URL         string     `db:"url" json:"url"`
	PublishedAt *time.Time `db:"published_at" json:"published_at"`
}
