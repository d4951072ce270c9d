package service

import (
	"context"
	"errors"

	"github.com/dom/socialpedia/internal/auth"
	"github.com/dom/socialpedia/internal/config"
	"github.com/dom/socialpedia/internal/events"
	"github.com/dom/socialpedia/internal/repository"
	"github.com/sirupsen/logrus"
)

var ErrForbiddenActor = errors.New("acting user does not match the authenticated user")

type Services struct {
	Auth   *AuthService
	Social *SocialService
	Feed   *FeedService
}

type Options struct {
	Publisher events.Publisher
	Random    RandomSource
	Log       logrus.FieldLogger
}

func NewServices(repos *repository.Repositories, cfg *config.Config, opts Options) *Services {
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}

	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL())

	return &Services{
		Auth:   NewAuthService(repos.User, hasher, tokens, opts.Random),
		Social: NewSocialService(repos.User, opts.Publisher, opts.Log),
		Feed:   NewFeedService(repos.User, repos.Post, opts.Publisher, opts.Log),
	}
}

// publish delivers event after a committed write. Failures are logged, not
// returned.
func publish(ctx context.Context, p events.Publisher, log logrus.FieldLogger, event events.Event) {
	if err := p.Publish(ctx, event); err != nil {
		log.WithError(err).WithField("event", event.Type).Warn("publish event failed")
	}
}
