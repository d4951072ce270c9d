package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dom/socialpedia/internal/cache"
	"github.com/dom/socialpedia/internal/domain"
	"github.com/dom/socialpedia/internal/repository"
	"github.com/dom/socialpedia/internal/repository/memory"
	"github.com/dom/socialpedia/internal/testutil"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_ReadThroughAndInvalidate(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repos := memory.NewRepositories(memory.NewStore())
	posts := cache.NewPostRepository(repos.Post, rdb, time.Minute, testutil.NewTestLogger())
	ctx := context.Background()

	author := testutil.NewUserBuilder().Build(t, repos.User)
	first := testutil.NewPostBuilder(author).WithDescription("first").Post()
	require.NoError(t, posts.Create(ctx, first))

	// Miss, then fill under the current generation.
	got, err := posts.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assertGeneration(t, mr, "socialpedia:feed:all", "1")
	assert.True(t, mr.Exists("socialpedia:feed:all:v1"))

	// A write behind the cache's back is not seen until invalidation.
	hidden := testutil.NewPostBuilder(author).WithDescription("hidden").Post()
	require.NoError(t, repos.Post.Create(ctx, hidden))
	got, err = posts.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// Writes through the cache move the listings to a new generation.
	second := testutil.NewPostBuilder(author).WithDescription("second").Post()
	require.NoError(t, posts.Create(ctx, second))
	assertGeneration(t, mr, "socialpedia:feed:all", "2")
	assert.False(t, mr.Exists("socialpedia:feed:all:v2"))

	got, err = posts.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	byUser, err := posts.ListByUser(ctx, author.ID)
	require.NoError(t, err)
	assert.Len(t, byUser, 3)
	userKey := "socialpedia:feed:user:" + author.ID.String()
	assert.True(t, mr.Exists(userKey+":v2"))

	liker := testutil.NewUserBuilder().Build(t, repos.User)
	second.ToggleLike(liker.ID)
	require.NoError(t, posts.Update(ctx, second))
	assertGeneration(t, mr, userKey, "3")
	assert.False(t, mr.Exists(userKey+":v3"))

	byUser, err = posts.ListByUser(ctx, author.ID)
	require.NoError(t, err)
	var liked bool
	for _, p := range byUser {
		if p.ID == second.ID {
			liked = p.IsLikedBy(liker.ID)
		}
	}
	assert.True(t, liked)
}

// racingStore runs afterRead once, between reading the store and returning,
// the window in which a concurrent writer can land.
type racingStore struct {
	repository.PostRepository
	afterRead func()
}

func (s *racingStore) List(ctx context.Context) ([]*domain.Post, error) {
	posts, err := s.PostRepository.List(ctx)
	s.fire()
	return posts, err
}

func (s *racingStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Post, error) {
	posts, err := s.PostRepository.ListByUser(ctx, userID)
	s.fire()
	return posts, err
}

func (s *racingStore) fire() {
	if hook := s.afterRead; hook != nil {
		s.afterRead = nil
		hook()
	}
}

func TestPostRepository_FillRacingWriteIsNotServed(t *testing.T) {
	tests := []struct {
		name string
		read func(context.Context, *cache.PostRepository, uuid.UUID) ([]*domain.Post, error)
	}{
		{
			name: "feed",
			read: func(ctx context.Context, posts *cache.PostRepository, _ uuid.UUID) ([]*domain.Post, error) {
				return posts.List(ctx)
			},
		},
		{
			name: "user feed",
			read: func(ctx context.Context, posts *cache.PostRepository, author uuid.UUID) ([]*domain.Post, error) {
				return posts.ListByUser(ctx, author)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr := miniredis.RunT(t)
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = rdb.Close() })

			repos := memory.NewRepositories(memory.NewStore())
			store := &racingStore{PostRepository: repos.Post}
			posts := cache.NewPostRepository(store, rdb, time.Minute, testutil.NewTestLogger())
			ctx := context.Background()

			author := testutil.NewUserBuilder().Build(t, repos.User)
			require.NoError(t, posts.Create(ctx, testutil.NewPostBuilder(author).WithDescription("first").Post()))

			// The write commits after the read loaded its snapshot but before
			// the read stores it.
			store.afterRead = func() {
				require.NoError(t, posts.Create(ctx, testutil.NewPostBuilder(author).WithDescription("second").Post()))
			}

			got, err := tt.read(ctx, posts, author.ID)
			require.NoError(t, err)
			assert.Len(t, got, 1)

			got, err = tt.read(ctx, posts, author.ID)
			require.NoError(t, err)
			assert.Len(t, got, 2)
		})
	}
}

func assertGeneration(t *testing.T, mr *miniredis.Miniredis, base, want string) {
	t.Helper()
	got, err := mr.Get(base + ":gen")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPostRepository_FallsBackWhenRedisIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	repos := memory.NewRepositories(memory.NewStore())
	posts := cache.NewPostRepository(repos.Post, rdb, time.Minute, testutil.NewTestLogger())
	ctx := context.Background()

	author := testutil.NewUserBuilder().Build(t, repos.User)
	mr.Close()

	require.NoError(t, posts.Create(ctx, testutil.NewPostBuilder(author).Post()))
	got, err := posts.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
