package memory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/dom/socialpedia/internal/domain"
	"github.com/dom/socialpedia/internal/repository/memory"
	"github.com/dom/socialpedia/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository(t *testing.T) {
	repos := memory.NewRepositories(memory.NewStore())
	ctx := context.Background()

	user := testutil.NewUserBuilder().WithEmail("Mixed@Test.io").User(t)
	require.NoError(t, repos.User.Create(ctx, user))
	assert.False(t, user.CreatedAt.IsZero())

	t.Run("duplicate email is rejected", func(t *testing.T) {
		dup := testutil.NewUserBuilder().WithEmail("mixed@test.io").User(t)
		assert.ErrorIs(t, repos.User.Create(ctx, dup), domain.ErrEmailTaken)
	})

	t.Run("lookup by email", func(t *testing.T) {
		got, err := repos.User.GetByEmail(ctx, "mixed@test.io")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		_, err = repos.User.GetByEmail(ctx, "nobody@test.io")
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	})

	t.Run("returned users are copies", func(t *testing.T) {
		got, err := repos.User.GetByID(ctx, user.ID)
		require.NoError(t, err)
		got.AddFriend(uuid.New())

		again, err := repos.User.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, again.Friends)
	})

	t.Run("update friends needs both users", func(t *testing.T) {
		ghost := testutil.NewUserBuilder().User(t)
		got, err := repos.User.GetByID(ctx, user.ID)
		require.NoError(t, err)
		got.AddFriend(ghost.ID)

		assert.ErrorIs(t, repos.User.UpdateFriends(ctx, got, ghost), domain.ErrRecordNotFound)

		again, err := repos.User.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, again.Friends)
	})
}

func TestPostRepository_ConcurrentReads(t *testing.T) {
	repos := memory.NewRepositories(memory.NewStore())
	ctx := context.Background()

	author := testutil.NewUserBuilder().User(t)
	require.NoError(t, repos.User.Create(ctx, author))
	post := testutil.NewPostBuilder(author).Post()
	require.NoError(t, repos.Post.Create(ctx, post))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repos.Post.List(ctx)
			assert.NoError(t, err)
			_, err = repos.Post.GetByID(ctx, post.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	posts, err := repos.Post.ListByUser(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Empty(t, posts[0].Likes)
}
