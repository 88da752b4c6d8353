package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"postboard/internal/domain"
	"postboard/internal/repository"
	"postboard/internal/storage"
)

const imageCleanupTimeout = 30 * time.Second

// PostService exposes the caller-scoped post operations.
type PostService interface {
	ListPosts(ctx context.Context, userID string) ([]domain.Post, error)
	GetPost(ctx context.Context, userID, id string) (*domain.Post, error)
	CreatePost(ctx context.Context, userID string, in domain.PostInput) (*domain.Post, error)
	UpdatePost(ctx context.Context, userID, id string, in domain.PostInput) (*domain.Post, error)
	DeletePost(ctx context.Context, userID, id string) (*domain.Post, error)
}

// ImageRemover deletes hosted images that belong to a post owner.
type ImageRemover interface {
	Enabled() bool
	Remove(ctx context.Context, ownerID, imageURL string) error
}

type postService struct {
	posts  repository.PostRepository
	images ImageRemover
	logger *logrus.Logger
}

func NewPostService(posts repository.PostRepository, images ImageRemover, logger *logrus.Logger) PostService {
	if logger == nil {
		logger = logrus.New()
	}
	return &postService{
		posts:  posts,
		images: images,
		logger: logger,
	}
}

func (s *postService) ListPosts(ctx context.Context, userID string) ([]domain.Post, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	posts, err := s.posts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(posts)
	return posts, nil
}

func (s *postService) GetPost(ctx context.Context, userID, id string) (*domain.Post, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if strings.TrimSpace(id) == "" {
		return nil, domain.Required("post id")
	}
	return s.posts.Get(ctx, userID, id)
}

func (s *postService) CreatePost(ctx context.Context, userID string, in domain.PostInput) (*domain.Post, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	post := &domain.Post{
		ID:       uuid.NewString(),
		UserID:   userID,
		Title:    in.Title,
		Body:     in.Body,
		ImageURL: in.ImageURL,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) UpdatePost(ctx context.Context, userID, id string, in domain.PostInput) (*domain.Post, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, domain.Required("post id")
	}

	post, err := s.posts.Update(ctx, userID, id, in)
	if err != nil {
		return nil, fmt.Errorf("update post %s: %w", id, err)
	}
	return post, nil
}

func (s *postService) DeletePost(ctx context.Context, userID, id string) (*domain.Post, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if strings.TrimSpace(id) == "" {
		return nil, domain.Required("post id")
	}

	post, err := s.posts.Delete(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("delete post %s: %w", id, err)
	}

	s.removeImage(ctx, post)
	return post, nil
}

// removeImage is best effort: failures are logged and never undo the delete.
func (s *postService) removeImage(ctx context.Context, post *domain.Post) {
	if s.images == nil || !s.images.Enabled() {
		return
	}

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), imageCleanupTimeout)
	defer cancel()

	log := s.logger.WithFields(logrus.Fields{
		"post_id":   post.ID,
		"user_id":   post.UserID,
		"image_url": post.ImageURL,
	})

	err := s.images.Remove(cleanupCtx, post.UserID, post.ImageURL)
	switch {
	case err == nil:
		log.Info("post image deleted")
	case errors.Is(err, storage.ErrForeignURL):
		log.Info("post image not hosted here, skipping cleanup")
	default:
		log.WithError(err).Warn("post image cleanup failed")
	}
}

func validateInput(in domain.PostInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return domain.Required("title")
	}
	if strings.TrimSpace(in.Body) == "" {
		return domain.Required("body")
	}
	if strings.TrimSpace(in.ImageURL) == "" {
		return domain.Required("imageUrl")
	}
	return nil
}

func sortNewestFirst(posts []domain.Post) {
	slices.SortStableFunc(posts, func(a, b domain.Post) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
}
