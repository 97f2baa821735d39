package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ViniDeiro/newalavancagem/internal/database"
)

// LoginLimiter throttles repeated failed logins per account name. A nil
// limiter disables throttling.
type LoginLimiter interface {
	TooManyAttempts(ctx context.Context, name string) (bool, error)
	RecordFailure(ctx context.Context, name string) error
	Clear(ctx context.Context, name string) error
}

// Service handles registration, login and token verification.
type Service struct {
	store           database.Store
	jwtManager      *JWTManager
	passwordManager *PasswordManager
	limiter         LoginLimiter
	logger          zerolog.Logger
}

// NewService creates an authentication service. The limiter may be nil.
func NewService(store database.Store, cfg Config, limiter LoginLimiter, logger zerolog.Logger) (*Service, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	if cfg.TokenDuration == 0 {
		cfg.TokenDuration = 7 * 24 * time.Hour
	}

	return &Service{
		store:           store,
		jwtManager:      NewJWTManager(cfg.JWTSecret, cfg.TokenDuration),
		passwordManager: NewPasswordManager(cfg.BcryptCost, cfg.MinPasswordLength),
		limiter:         limiter,
		logger:          logger.With().Str("component", "auth").Logger(),
	}, nil
}

// GetJWTManager returns the JWT manager for use in middleware.
func (s *Service) GetJWTManager() *JWTManager {
	return s.jwtManager
}

// Register creates an account and logs it in, returning a token.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, AuthError{Code: "VALIDATION_ERROR", Message: "name is required"}
	}
	if err := s.passwordManager.ValidatePassword(req.Password); err != nil {
		return nil, AuthError{Code: "WEAK_PASSWORD", Message: err.Error()}
	}
	if req.Age < 18 {
		return nil, ErrUnderage
	}
	if req.Bankroll <= 0 {
		return nil, ErrInvalidBankroll
	}

	existing, err := s.store.GetUserByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, ErrNameExists
	}

	passwordHash, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &database.User{
		ID:              uuid.NewString(),
		Name:            name,
		PasswordHash:    passwordHash,
		Age:             req.Age,
		InitialBankroll: req.Bankroll,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user registered")

	return s.issueToken(user)
}

// Login verifies the credentials and returns a token. Failed attempts
// are counted by the limiter when one is configured.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	name := strings.TrimSpace(req.Name)

	if s.limiter != nil {
		locked, err := s.limiter.TooManyAttempts(ctx, name)
		if err != nil {
			s.logger.Warn().Err(err).Msg("login limiter unavailable, allowing attempt")
		} else if locked {
			return nil, ErrTooManyAttempts
		}
	}

	user, err := s.store.GetUserByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !s.passwordManager.VerifyPassword(req.Password, user.PasswordHash) {
		if s.limiter != nil {
			if err := s.limiter.RecordFailure(ctx, name); err != nil {
				s.logger.Warn().Err(err).Msg("failed to record login failure")
			}
		}
		return nil, ErrInvalidCredentials
	}

	if s.limiter != nil {
		if err := s.limiter.Clear(ctx, name); err != nil {
			s.logger.Warn().Err(err).Msg("failed to clear login failures")
		}
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")

	return s.issueToken(user)
}

// Verify validates a token and returns the current user payload. Tokens
// for deleted users are rejected.
func (s *Service) Verify(ctx context.Context, token string) (*UserPayload, error) {
	claims, err := s.jwtManager.Validate(token)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	payload := userPayload(user)
	return &payload, nil
}

// GetUser returns the user payload for an authenticated user ID.
func (s *Service) GetUser(ctx context.Context, userID string) (*UserPayload, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	payload := userPayload(user)
	return &payload, nil
}

func (s *Service) issueToken(user *database.User) (*LoginResponse, error) {
	token, err := s.jwtManager.Generate(UserClaims{UserID: user.ID, Name: user.Name})
	if err != nil {
		return nil, err
	}
	return &LoginResponse{Token: token, User: userPayload(user)}, nil
}

func userPayload(user *database.User) UserPayload {
	return UserPayload{
		ID:       user.ID,
		Name:     user.Name,
		Age:      user.Age,
		Bankroll: user.InitialBankroll,
	}
}
