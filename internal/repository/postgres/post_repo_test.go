package postgres_test

import (
	"context"
	"testing"

	"github.com/dom/socialpedia/internal/domain"
	"github.com/dom/socialpedia/internal/repository/postgres"
	"github.com/dom/socialpedia/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository(t *testing.T) {
	testDB := testutil.NewTestDB(t)
	repos := postgres.NewRepositories(testDB.DB)
	ctx := context.Background()

	author := testutil.NewUserBuilder().User(t)
	other := testutil.NewUserBuilder().User(t)
	require.NoError(t, repos.User.Create(ctx, author))
	require.NoError(t, repos.User.Create(ctx, other))

	p1 := testutil.NewPostBuilder(author).WithDescription("first").Post()
	p2 := testutil.NewPostBuilder(other).WithDescription("second").Post()
	require.NoError(t, repos.Post.Create(ctx, p1))
	require.NoError(t, repos.Post.Create(ctx, p2))

	t.Run("list returns every post", func(t *testing.T) {
		posts, err := repos.Post.List(ctx)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, p1.ID, posts[0].ID)
		assert.Equal(t, p2.ID, posts[1].ID)
	})

	t.Run("list by user filters on author", func(t *testing.T) {
		posts, err := repos.Post.ListByUser(ctx, author.ID)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, "first", posts[0].Description)

		posts, err = repos.Post.ListByUser(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, posts)
	})

	t.Run("update persists likes", func(t *testing.T) {
		p1.ToggleLike(other.ID)
		require.NoError(t, repos.Post.Update(ctx, p1))

		got, err := repos.Post.GetByID(ctx, p1.ID)
		require.NoError(t, err)
		assert.True(t, got.IsLikedBy(other.ID))

		got.ToggleLike(other.ID)
		require.NoError(t, repos.Post.Update(ctx, got))

		got, err = repos.Post.GetByID(ctx, p1.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Likes)
	})

	t.Run("missing post", func(t *testing.T) {
		_, err := repos.Post.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)

		ghost := testutil.NewPostBuilder(author).Post()
		assert.ErrorIs(t, repos.Post.Update(ctx, ghost), domain.ErrRecordNotFound)
	})
}
