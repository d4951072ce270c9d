// Package cache keeps feed listings in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dom/socialpedia/internal/domain"
	"github.com/dom/socialpedia/internal/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	feedKey       = "socialpedia:feed:all"
	userFeedKeyFx = "socialpedia:feed:user:"
	genSuffix     = ":gen"
)

// PostRepository is a read-through cache over another PostRepository. Feed
// listings are cached; single posts are always read from the store so likes
// are toggled against fresh state. Writes drop the affected listings.
// Each listing is stored under its current generation, which writes bump, so
// a fill computed before a write never becomes visible after it.
// Redis failures are logged and the store is used directly.
type PostRepository struct {
	next repository.PostRepository
	rdb  redis.Cmdable
	ttl  time.Duration
	log  logrus.FieldLogger
}

func NewPostRepository(next repository.PostRepository, rdb redis.Cmdable, ttl time.Duration, log logrus.FieldLogger) *PostRepository {
	return &PostRepository{next: next, rdb: rdb, ttl: ttl, log: log}
}

func (r *PostRepository) Create(ctx context.Context, post *domain.Post) error {
	if err := r.next.Create(ctx, post); err != nil {
		return err
	}
	r.invalidate(ctx, post.UserID)
	return nil
}

func (r *PostRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	return r.next.GetByID(ctx, id)
}

func (r *PostRepository) List(ctx context.Context) ([]*domain.Post, error) {
	return r.cached(ctx, feedKey, r.next.List)
}

func (r *PostRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Post, error) {
	return r.cached(ctx, userFeedKey(userID), func(ctx context.Context) ([]*domain.Post, error) {
		return r.next.ListByUser(ctx, userID)
	})
}

func (r *PostRepository) Update(ctx context.Context, post *domain.Post) error {
	if err := r.next.Update(ctx, post); err != nil {
		return err
	}
	r.invalidate(ctx, post.UserID)
	return nil
}

func (r *PostRepository) cached(ctx context.Context, base string, load func(context.Context) ([]*domain.Post, error)) ([]*domain.Post, error) {
	gen, ok := r.generation(ctx, base)
	if !ok {
		return load(ctx)
	}
	key := base + ":v" + gen

	raw, err := r.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var posts []*domain.Post
		if jsonErr := json.Unmarshal(raw, &posts); jsonErr == nil {
			return posts, nil
		}
		r.log.WithField("key", key).Warn("discarding undecodable cache entry")
	case !errors.Is(err, redis.Nil):
		r.log.WithError(err).WithField("key", key).Warn("feed cache read failed")
	}

	posts, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if body, err := json.Marshal(posts); err == nil {
		if err := r.rdb.Set(ctx, key, body, r.ttl).Err(); err != nil {
			r.log.WithError(err).WithField("key", key).Warn("feed cache write failed")
		}
	}
	return posts, nil
}

// generation must be read before loading from the store.
func (r *PostRepository) generation(ctx context.Context, base string) (string, bool) {
	gen, err := r.rdb.Get(ctx, base+genSuffix).Result()
	switch {
	case err == nil:
		return gen, true
	case errors.Is(err, redis.Nil):
		return "0", true
	}
	r.log.WithError(err).WithField("key", base).Warn("feed cache read failed")
	return "", false
}

func (r *PostRepository) invalidate(ctx context.Context, userID uuid.UUID) {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, feedKey+genSuffix)
		pipe.Incr(ctx, userFeedKey(userID)+genSuffix)
		return nil
	})
	if err != nil {
		r.log.WithError(err).Warn("feed cache invalidation failed")
	}
}

func userFeedKey(id uuid.UUID) string {
	return userFeedKeyFx + id.String()
}
