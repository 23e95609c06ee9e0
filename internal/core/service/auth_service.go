package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lp2808/retail-pos/internal/auth"
	"github.com/lp2808/retail-pos/internal/core/domain"
	"github.com/lp2808/retail-pos/internal/port"
)

var (
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrUserNotFound        = errors.New("user not found")
)

// TokenPair is returned on login and refresh.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// AuthService registers users and issues token pairs. Refresh tokens are
// opaque, stored on the user row and rotated on every refresh.
type AuthService struct {
	users      port.UserRepository
	tokens     *auth.TokenService
	refreshTTL time.Duration
}

func NewAuthService(users port.UserRepository, tokens *auth.TokenService, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		refreshTTL: refreshTTL,
	}
}

func (s *AuthService) Register(ctx context.Context, email, name, password string, role domain.Role) (*domain.User, error) {
	existing, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, port.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if user == nil || !auth.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.issuePair(ctx, user)
}

// Refresh rotates the refresh token: the presented token is invalidated and
// a fresh pair is issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	user, err := s.users.UserByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("lookup refresh token: %w", err)
	}
	if user == nil || time.Now().After(user.RefreshExpiresAt) {
		return nil, ErrInvalidRefreshToken
	}

	return s.issuePair(ctx, user)
}

func (s *AuthService) User(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.UserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	}
	return user, nil
}

func (s *AuthService) issuePair(ctx context.Context, user *domain.User) (*TokenPair, error) {
	accessToken, accessExpiresAt, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken := uuid.NewString()
	refreshExpiresAt := time.Now().Add(s.refreshTTL)
	if err := s.users.UpdateRefreshToken(ctx, user.ID, refreshToken, refreshExpiresAt); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}
