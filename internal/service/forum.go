package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Anditinnis/game-distribution-platform/internal/access"
	"github.com/Anditinnis/game-distribution-platform/internal/domain"
	"github.com/Anditinnis/game-distribution-platform/internal/repository"
)

// ForumService gates and stores posts in discussion topics.
type ForumService struct {
	repo *repository.Repository
}

// NewForumService constructs the forum service.
func NewForumService(repo *repository.Repository) *ForumService {
	return &ForumService{repo: repo}
}

// PostInTopic adds a post to a topic. Closed topics accept posts from
// admins only.
func (s *ForumService) PostInTopic(ctx context.Context, actor domain.Actor, topicID, content string) (domain.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Post{}, fmt.Errorf("%w: post content is required", ErrInvalidInput)
	}

	topic, err := s.repo.Forum.GetTopic(ctx, topicID)
	if err != nil {
		if err == repository.ErrNotFound {
			return domain.Post{}, ErrTopicNotFound
		}
		return domain.Post{}, err
	}

	if d := access.CanPostInTopic(actor, topic); !d.Allowed {
		return domain.Post{}, fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
	}

	return s.repo.Forum.CreatePost(ctx, topicID, actor.ID, content)
}
