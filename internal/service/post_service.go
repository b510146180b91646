package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"social-feed/internal/domain"
	"social-feed/internal/repository"
	"social-feed/internal/storage"
)

const minTitleLen = 5

// PostService coordinates post lifecycle operations backed by the post
// repository and the image store.
type PostService interface {
	Create(ctx context.Context, title, content, imageURL, creatorID string) (*domain.Post, error)
	Get(ctx context.Context, id string) (*domain.Post, error)
	// List returns one page of posts newest first, plus the total count
	// across all pages.
	List(ctx context.Context, page int) ([]domain.Post, int, error)
	Update(ctx context.Context, id, callerID, title, content, imageURL string) (*domain.Post, error)
	Delete(ctx context.Context, id, callerID string) (*domain.Post, error)
}

type postService struct {
	posts    repository.PostRepository
	images   storage.Service
	pageSize int
	logger   logrus.FieldLogger
}

func NewPostService(posts repository.PostRepository, images storage.Service, pageSize int, logger logrus.FieldLogger) PostService {
	return &postService{
		posts:    posts,
		images:   images,
		pageSize: pageSize,
		logger:   logger,
	}
}

func (s *postService) Create(ctx context.Context, title, content, imageURL, creatorID string) (*domain.Post, error) {
	title, content, err := validatePostFields(title, content)
	if err != nil {
		return nil, err
	}
	if imageURL == "" {
		return nil, ErrNoImage
	}

	post := &domain.Post{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		ImageURL:  imageURL,
		CreatorID: creatorID,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) Get(ctx context.Context, id string) (*domain.Post, error) {
	return s.posts.Get(ctx, id)
}

func (s *postService) List(ctx context.Context, page int) ([]domain.Post, int, error) {
	if page < 1 {
		page = 1
	}

	total, err := s.posts.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	posts, err := s.posts.List(ctx, (page-1)*s.pageSize, s.pageSize)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (s *postService) Update(ctx context.Context, id, callerID, title, content, imageURL string) (*domain.Post, error) {
	title, content, err := validatePostFields(title, content)
	if err != nil {
		return nil, err
	}
	if imageURL == "" {
		return nil, ErrNoImage
	}

	post, err := s.ownedPost(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	if imageURL != post.ImageURL {
		s.clearImage(post.ImageURL)
	}

	post.Title = title
	post.Content = content
	post.ImageURL = imageURL
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) Delete(ctx context.Context, id, callerID string) (*domain.Post, error) {
	post, err := s.ownedPost(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	s.clearImage(post.ImageURL)

	if err := s.posts.Delete(ctx, id); err != nil {
		return nil, err
	}
	return post, nil
}

// ownedPost is the single ownership-resolution path shared by update and
// delete, so both yield the same forbid/allow decisions.
func (s *postService) ownedPost(ctx context.Context, id, callerID string) (*domain.Post, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.CreatorID != callerID {
		return nil, ErrForbidden
	}
	return post, nil
}

// clearImage removes a replaced or orphaned image file in the background.
// Failures are logged and never surface to the caller; no retry is
// scheduled.
func (s *postService) clearImage(ref string) {
	if ref == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.images.Remove(ctx, ref); err != nil {
			s.logger.Warnf("remove image %s: %v", ref, err)
		}
	}()
}

func validatePostFields(title, content string) (string, string, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if len(title) < minTitleLen {
		return "", "", fmt.Errorf("%w: title must be at least %d characters", ErrValidation, minTitleLen)
	}
	if len(content) < minTitleLen {
		return "", "", fmt.Errorf("%w: content must be at least %d characters", ErrValidation, minTitleLen)
	}
	return title, content, nil
}
