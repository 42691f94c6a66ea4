package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cookie-auth/internal/model"
	"cookie-auth/internal/repository"
	"cookie-auth/pkg/apierror"
)

type LoginResult struct {
	User      model.User
	Token     string
	ExpiresAt time.Time
}

type AuthService struct {
	users  repository.UserStore
	hasher *PasswordHasher
	tokens *TokenService
	// decoyHash is compared against on unknown emails so both login failures cost one bcrypt round.
	decoyHash string
}

func NewAuthService(users repository.UserStore, hasher *PasswordHasher, tokens *TokenService) (*AuthService, error) {
	if users == nil || hasher == nil || tokens == nil {
		return nil, errors.New("auth service: users, hasher and tokens are required")
	}

	decoy, err := hasher.Hash("decoy-password-for-unknown-accounts")
	if err != nil {
		return nil, fmt.Errorf("auth service: prepare decoy hash: %w", err)
	}

	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		decoyHash: decoy,
	}, nil
}

func (s *AuthService) Register(ctx context.Context, email string, password string) (model.User, error) {
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		return model.User{}, apierror.New("BAD_REQUEST", "Email and password are required", http.StatusBadRequest)
	}

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return model.User{}, model.ErrUserAlreadyExists
	case !errors.Is(err, model.ErrUserNotFound):
		return model.User{}, fmt.Errorf("register: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return model.User{}, err
	}

	// The store re-checks uniqueness atomically; a concurrent registration surfaces here as ErrUserAlreadyExists.
	user, err := s.users.Create(ctx, model.User{
		Email:        email,
		PasswordHash: hash,
		Role:         model.DefaultRole,
	})
	if err != nil {
		if errors.Is(err, model.ErrUserAlreadyExists) {
			return model.User{}, err
		}
		return model.User{}, fmt.Errorf("register: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login returns model.ErrInvalidCredentials for both an unknown email and a wrong password.
func (s *AuthService) Login(ctx context.Context, email string, password string) (LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		_, _ = s.hasher.Verify(s.decoyHash, password)
		return LoginResult{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}
	if !ok {
		return LoginResult{}, model.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}

	return LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) ValidateToken(token string) (*model.TokenClaims, error) {
	return s.tokens.Verify(token)
}

func (s *AuthService) GetUserByID(ctx context.Context, id string) (model.User, error) {
	return s.users.FindByID(ctx, id)
}

// SetRole changes the role of the user registered under email.
func (s *AuthService) SetRole(ctx context.Context, email string, role model.Role) (model.User, error) {
	return ChangeRole(ctx, s.users, email, role)
}

// ChangeRole is SetRole for callers that hold a store but no AuthService,
// such as the admin CLI.
func ChangeRole(ctx context.Context, users repository.UserStore, email string, role model.Role) (model.User, error) {
	if !role.Valid() {
		return model.User{}, model.ErrInvalidRole
	}

	user, err := users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return model.User{}, err
	}

	if err := users.UpdateRole(ctx, user.ID, role); err != nil {
		return model.User{}, err
	}

	user.Role = role
	slog.Info("user role changed", "user_id", user.ID, "role", role)
	return user, nil
}
