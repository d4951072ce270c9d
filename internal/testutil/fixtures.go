package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/dom/socialpedia/internal/domain"
	"github.com/dom/socialpedia/internal/events"
	"github.com/dom/socialpedia/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	firstName   string
	lastName    string
	email       string
	password    string
	location    string
	occupation  string
	picturePath string
}

// NewUserBuilder creates a new UserBuilder with a unique email
func NewUserBuilder() *UserBuilder {
	suffix := uuid.New().String()[:8]
	return &UserBuilder{
		firstName:  "User" + suffix,
		lastName:   "Tester",
		email:      fmt.Sprintf("user_%s@test.io", suffix),
		password:   "testpassword123",
		location:   "Springfield",
		occupation: "Engineer",
	}
}

func (b *UserBuilder) WithFirstName(name string) *UserBuilder {
	b.firstName = name
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

func (b *UserBuilder) WithLocation(location string) *UserBuilder {
	b.location = location
	return b
}

func (b *UserBuilder) WithPicturePath(path string) *UserBuilder {
	b.picturePath = path
	return b
}

// User returns an unsaved user with a hashed password and no friends.
func (b *UserBuilder) User(t *testing.T) *domain.User {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	return &domain.User{
		ID:           uuid.New(),
		FirstName:    b.firstName,
		LastName:     b.lastName,
		Email:        b.email,
		PasswordHash: string(hashedPassword),
		PicturePath:  b.picturePath,
		Friends:      datatypes.JSONSlice[uuid.UUID]{},
		Location:     b.location,
		Occupation:   b.occupation,
	}
}

// Build creates the user in repo
func (b *UserBuilder) Build(t *testing.T, repo repository.UserRepository) *domain.User {
	t.Helper()

	user := b.User(t)
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// RegisterRequest is the JSON body for POST /auth/register.
func (b *UserBuilder) RegisterRequest() map[string]string {
	return map[string]string{
		"firstName":   b.firstName,
		"lastName":    b.lastName,
		"email":       b.email,
		"password":    b.password,
		"location":    b.location,
		"occupation":  b.occupation,
		"picturePath": b.picturePath,
	}
}

// AuthResponse matches the login response
type AuthResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// BuildAndAuthenticate registers the user through the API, logs in, and
// returns the user and its token.
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	resp := postJSON(t, ts.URL("/auth/register"), b.RegisterRequest())
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: unexpected status code: %d", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL("/auth/login"), map[string]string{
		"email":    b.email,
		"password": b.password,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: unexpected status code: %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	return &authResp.User, authResp.Token
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// PostBuilder creates test posts with a builder pattern
type PostBuilder struct {
	author      *domain.User
	description string
	picturePath string
}

func NewPostBuilder(author *domain.User) *PostBuilder {
	return &PostBuilder{
		author:      author,
		description: "post " + uuid.New().String()[:8],
	}
}

func (b *PostBuilder) WithDescription(description string) *PostBuilder {
	b.description = description
	return b
}

func (b *PostBuilder) WithPicturePath(path string) *PostBuilder {
	b.picturePath = path
	return b
}

// Post returns an unsaved post carrying the author snapshot.
func (b *PostBuilder) Post() *domain.Post {
	return &domain.Post{
		ID:              uuid.New(),
		UserID:          b.author.ID,
		FirstName:       b.author.FirstName,
		LastName:        b.author.LastName,
		Location:        b.author.Location,
		Description:     b.description,
		PicturePath:     b.picturePath,
		UserPicturePath: b.author.PicturePath,
		Likes:           datatypes.JSONMap{},
		Comments:        datatypes.JSONSlice[string]{},
	}
}

// FixedRandom returns Values in order and records every bound it is asked for.
type FixedRandom struct {
	Values []int
	Bounds []int
	next   int
}

func (r *FixedRandom) Intn(n int) int {
	r.Bounds = append(r.Bounds, n)
	if len(r.Values) == 0 {
		return 0
	}
	v := r.Values[r.next%len(r.Values)]
	r.next++
	return v
}

// RecordingPublisher keeps every published event.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *RecordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *RecordingPublisher) Events() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Event(nil), p.events...)
}

func (p *RecordingPublisher) Types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	var types []events.Type
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

// CreateAuthenticatedRequest creates an HTTP request with auth header
func CreateAuthenticatedRequest(t *testing.T, method, url string, body interface{}, token string) *http.Request {
	t.Helper()

	var bodyReader *bytes.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// Do sends req with a short client timeout.
func Do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}
