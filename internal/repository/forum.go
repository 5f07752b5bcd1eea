package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Anditinnis/game-distribution-platform/internal/domain"
)

// ForumRepository persists topics and posts. Thread display and moderation
// live with the forum collaborator; the engine only needs the closed flag
// and post insertion.
type ForumRepository struct {
	pool *pgxpool.Pool
}

// TopicCreateParams bundles the fields required to create a topic.
type TopicCreateParams struct {
	Title    string
	AuthorID string
	IsClosed bool
}

// CreateTopic inserts a topic and returns the stored entity.
func (r *ForumRepository) CreateTopic(ctx context.Context, params TopicCreateParams) (domain.Topic, error) {
	var topic domain.Topic
	err := r.pool.QueryRow(ctx, `
        INSERT INTO forum_topics (id, title, author_id, is_closed)
        VALUES ($1, $2, $3, $4)
        RETURNING id, title, author_id, is_closed, created_at
    `, uuid.NewString(), params.Title, params.AuthorID, params.IsClosed).Scan(
		&topic.ID, &topic.Title, &topic.AuthorID, &topic.IsClosed, &topic.CreatedAt,
	)
	if err != nil {
		return domain.Topic{}, err
	}
	return topic, nil
}

// GetTopic fetches a topic by id.
func (r *ForumRepository) GetTopic(ctx context.Context, id string) (domain.Topic, error) {
	var topic domain.Topic
	err := r.pool.QueryRow(ctx, `
        SELECT id, title, author_id, is_closed, created_at
        FROM forum_topics
        WHERE id = $1
    `, id).Scan(&topic.ID, &topic.Title, &topic.AuthorID, &topic.IsClosed, &topic.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Topic{}, ErrNotFound
		}
		return domain.Topic{}, err
	}
	return topic, nil
}

// CreatePost inserts a post into a topic.
func (r *ForumRepository) CreatePost(ctx context.Context, topicID, authorID, content string) (domain.Post, error) {
	var post domain.Post
	err := r.pool.QueryRow(ctx, `
        INSERT INTO forum_posts (id, topic_id, author_id, content)
        VALUES ($1, $2, $3, $4)
        RETURNING id, topic_id, author_id, content, created_at
    `, uuid.NewString(), topicID, authorID, content).Scan(
		&post.ID, &post.TopicID, &post.AuthorID, &post.Content, &post.CreatedAt,
	)
	if err != nil {
		return domain.Post{}, err
	}
	return post, nil
}
