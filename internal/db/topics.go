package db

import (
	"context"

	"briefcaster/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// GetFavoriteTopicIDs returns the user's favorite topics in the order they were favorited.
func GetFavoriteTopicIDs(ctx context.Context, userID uuid.UUID) ([]int64, error) {
	query := `
		SELECT topic_id
		FROM user_topics
		WHERE user_id = $1
		ORDER BY created_at, topic_id
	`
	var ids []int64
	err := DB.SelectContext(ctx, &ids, query, userID)
	return ids, err
}

// GetRecentArticlesForTopics returns up to limit articles across the topics, newest first.
func GetRecentArticlesForTopics(ctx context.Context, topicIDs []int64, limit int) ([]models.Article, error) {
	query := `
		SELECT id, source_id, topic_id, title, summary_text, url, published_at
		FROM articles
		WHERE topic_id = ANY($1)
		ORDER BY published_at DESC NULLS LAST, id DESC
		LIMIT $2
	`
	var articles []models.Article
	err := DB.SelectContext(ctx, &articles, query, pq.Array(topicIDs), limit)
	return articles, err
}
