// Package memory is a process-local store used for development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dom/socialpedia/internal/domain"
	"github.com/dom/socialpedia/internal/repository"
	"github.com/google/uuid"
)

// Store holds users and posts behind a single lock, so UpdateFriends is
// atomic with respect to every other operation.
type Store struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]*domain.User
	byEmail map[string]uuid.UUID
	posts   map[uuid.UUID]*domain.Post
	seq     int64
	order   map[uuid.UUID]int64
}

func NewStore() *Store {
	return &Store{
		users:   make(map[uuid.UUID]*domain.User),
		byEmail: make(map[string]uuid.UUID),
		posts:   make(map[uuid.UUID]*domain.Post),
		order:   make(map[uuid.UUID]int64),
	}
}

func NewRepositories(s *Store) *repository.Repositories {
	return &repository.Repositories{
		User: &userRepository{s: s},
		Post: &postRepository{s: s},
	}
}

type userRepository struct {
	s *Store
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, ok := r.s.byEmail[key]; ok {
		return domain.ErrEmailTaken
	}
	stamp(&user.CreatedAt, &user.UpdatedAt)
	r.s.users[user.ID] = user.Clone()
	r.s.byEmail[key] = user.ID
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return u.Clone(), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return r.s.users[id].Clone(), nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			users = append(users, u.Clone())
		}
	}
	return users, nil
}

func (r *userRepository) UpdateFriends(ctx context.Context, a, b *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	storedA, okA := r.s.users[a.ID]
	storedB, okB := r.s.users[b.ID]
	if !okA || !okB {
		return domain.ErrRecordNotFound
	}

	now := time.Now()
	storedA.Friends = a.Clone().Friends
	storedA.UpdatedAt = now
	storedB.Friends = b.Clone().Friends
	storedB.UpdatedAt = now
	return nil
}

type postRepository struct {
	s *Store
}

func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stamp(&post.CreatedAt, &post.UpdatedAt)
	r.s.seq++
	r.s.order[post.ID] = r.s.seq
	r.s.posts[post.ID] = post.Clone()
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.posts[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return p.Clone(), nil
}

func (r *postRepository) List(ctx context.Context) ([]*domain.Post, error) {
	return r.collect(func(*domain.Post) bool { return true }), nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Post, error) {
	return r.collect(func(p *domain.Post) bool { return p.UserID == userID }), nil
}

func (r *postRepository) Update(ctx context.Context, post *domain.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.posts[post.ID]; !ok {
		return domain.ErrRecordNotFound
	}
	post.UpdatedAt = time.Now()
	r.s.posts[post.ID] = post.Clone()
	return nil
}

// collect returns matching posts in insertion order.
func (r *postRepository) collect(match func(*domain.Post) bool) []*domain.Post {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	posts := make([]*domain.Post, 0, len(r.s.posts))
	for _, p := range r.s.posts {
		if match(p) {
			posts = append(posts, p.Clone())
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		return r.s.order[posts[i].ID] < r.s.order[posts[j].ID]
	})
	return posts
}

func stamp(created, updated *time.Time) {
	now := time.Now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}
