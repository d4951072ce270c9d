package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dom/socialpedia/internal/domain"
	"github.com/dom/socialpedia/internal/events"
	"github.com/dom/socialpedia/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

var ErrPostNotFound = errors.New("post not found")

type FeedService struct {
	userRepo  repository.UserRepository
	postRepo  repository.PostRepository
	publisher events.Publisher
	log       logrus.FieldLogger
}

func NewFeedService(userRepo repository.UserRepository, postRepo repository.PostRepository, publisher events.Publisher, log logrus.FieldLogger) *FeedService {
	return &FeedService{
		userRepo:  userRepo,
		postRepo:  postRepo,
		publisher: publisher,
		log:       log,
	}
}

type CreatePostInput struct {
	UserID      uuid.UUID
	Description string
	PicturePath string
}

// CreatePost stores a post carrying a snapshot of the author's name,
// location and picture, then returns the whole feed.
func (s *FeedService) CreatePost(ctx context.Context, input CreatePostInput) ([]*domain.Post, error) {
	author, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find author: %w", err)
	}

	post := &domain.Post{
		ID:              uuid.New(),
		UserID:          author.ID,
		FirstName:       author.FirstName,
		LastName:        author.LastName,
		Location:        author.Location,
		Description:     input.Description,
		PicturePath:     input.PicturePath,
		UserPicturePath: author.PicturePath,
		Likes:           datatypes.JSONMap{},
		Comments:        datatypes.JSONSlice[string]{},
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	publish(ctx, s.publisher, s.log, events.New(events.PostCreated, author.ID, post.ID).WithPost(post))

	return s.ListFeed(ctx)
}

func (s *FeedService) ListFeed(ctx context.Context) ([]*domain.Post, error) {
	posts, err := s.postRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (s *FeedService) ListByAuthor(ctx context.Context, userID uuid.UUID) ([]*domain.Post, error) {
	posts, err := s.postRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list posts by user: %w", err)
	}
	return posts, nil
}

// ToggleLike flips userID's like on the post and returns the updated post.
func (s *FeedService) ToggleLike(ctx context.Context, postID, userID uuid.UUID) (*domain.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}

	eventType := events.PostUnliked
	if post.ToggleLike(userID) {
		eventType = events.PostLiked
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("update post: %w", err)
	}

	publish(ctx, s.publisher, s.log, events.New(eventType, userID, post.ID).WithPost(post))

	return post, nil
}
