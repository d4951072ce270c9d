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
)

var ErrSelfFriend = errors.New("cannot add yourself as a friend")

type SocialService struct {
	userRepo  repository.UserRepository
	publisher events.Publisher
	log       logrus.FieldLogger
}

func NewSocialService(userRepo repository.UserRepository, publisher events.Publisher, log logrus.FieldLogger) *SocialService {
	return &SocialService{
		userRepo:  userRepo,
		publisher: publisher,
		log:       log,
	}
}

// GetFriends lists the user's friends in friend-list order. Friends that no
// longer exist are left out.
func (s *SocialService) GetFriends(ctx context.Context, userID uuid.UUID) ([]domain.FriendSummary, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.summaries(ctx, user.Friends)
}

// ToggleFriend removes friendID from userID's friends if present, otherwise
// adds it. Both users' lists change together.
func (s *SocialService) ToggleFriend(ctx context.Context, userID, friendID uuid.UUID) ([]domain.FriendSummary, error) {
	if userID == friendID {
		return nil, ErrSelfFriend
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	friend, err := s.loadUser(ctx, friendID)
	if err != nil {
		return nil, err
	}

	eventType := events.FriendAdded
	if user.HasFriend(friendID) {
		user.RemoveFriend(friendID)
		friend.RemoveFriend(userID)
		eventType = events.FriendRemoved
	} else {
		user.AddFriend(friendID)
		if !friend.HasFriend(userID) {
			friend.AddFriend(userID)
		}
	}

	if err := s.userRepo.UpdateFriends(ctx, user, friend); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update friends: %w", err)
	}

	publish(ctx, s.publisher, s.log, events.New(eventType, userID, friendID))

	return s.summaries(ctx, user.Friends)
}

func (s *SocialService) loadUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *SocialService) summaries(ctx context.Context, ids []uuid.UUID) ([]domain.FriendSummary, error) {
	friends, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("find friends: %w", err)
	}

	out := make([]domain.FriendSummary, 0, len(friends))
	for _, f := range friends {
		out = append(out, f.Summary())
	}
	return out, nil
}
