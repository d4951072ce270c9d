package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/dom/socialpedia/internal/auth"
	"github.com/dom/socialpedia/internal/domain"
	"github.com/dom/socialpedia/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

// counterCeiling bounds the seeded profile counters: [0, counterCeiling).
const counterCeiling = 10000

// RandomSource seeds the viewedProfile and impressions counters.
type RandomSource interface {
	Intn(n int) int
}

type defaultRandom struct{}

func (defaultRandom) Intn(n int) int { return rand.IntN(n) }

type AuthService struct {
	userRepo repository.UserRepository
	hasher   *auth.PasswordHasher
	tokens   *auth.TokenService
	random   RandomSource
	validate *validator.Validate
}

func NewAuthService(userRepo repository.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenService, random RandomSource) *AuthService {
	if random == nil {
		random = defaultRandom{}
	}
	return &AuthService{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		random:   random,
		validate: newValidator(),
	}
}

type RegisterInput struct {
	FirstName   string `json:"firstName" validate:"required,alphanum,min=2,max=50"`
	LastName    string `json:"lastName" validate:"required,alphanum,min=2,max=50"`
	Email       string `json:"email" validate:"required,email,max=50"`
	Password    string `json:"password" validate:"required,min=5,bcryptmax"`
	PicturePath string `json:"picturePath"`
	Location    string `json:"location"`
	Occupation  string `json:"occupation"`
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	input.Email = normalizeEmail(input.Email)
	if err := s.validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:            uuid.New(),
		FirstName:     input.FirstName,
		LastName:      input.LastName,
		Email:         input.Email,
		PasswordHash:  hash,
		PicturePath:   input.PicturePath,
		Friends:       datatypes.JSONSlice[uuid.UUID]{},
		Location:      input.Location,
		Occupation:    input.Occupation,
		ViewedProfile: s.random.Intn(counterCeiling),
		Impressions:   s.random.Intn(counterCeiling),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{Token: token, User: user}, nil
}

// VerifyToken returns the user id carried by a session token.
func (s *AuthService) VerifyToken(token string) (uuid.UUID, error) {
	return s.tokens.Verify(token)
}

func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
