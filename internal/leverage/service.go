package leverage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Defaults applied when a create request leaves the tuning knobs empty.
const (
	DefaultOdd     = 1.1
	DefaultMaxBets = 60
)

// ValidationError is a user-facing input error. Handlers map it to a 400
// and surface the message as-is.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

var (
	ErrNameRequired         = ValidationError("name and initial value are required")
	ErrInitialValueInvalid  = ValidationError("initial value must be greater than zero")
	ErrOddInvalid           = ValidationError("odd must be greater than 1")
	ErrMaxBetsInvalid       = ValidationError("max bets must be at least 1")
	ErrDayOutOfRange        = ValidationError("current day is out of range")
	ErrInsufficientBankroll = ValidationError("initial value exceeds available bankroll")
)

// CreateRequest carries the user-supplied fields for a new progression.
type CreateRequest struct {
	Name         string  `json:"name"`
	InitialValue float64 `json:"initialValue"`
	Odd          float64 `json:"odd"`
	MaxBets      int     `json:"maxBets"`
}

// CloseResult is returned to the caller after a successful close-out.
type CloseResult struct {
	FinalValue   float64 `json:"finalValue"`
	Profit       float64 `json:"profit"`
	InitialValue float64 `json:"initialValue"`
}

// Service owns the progression lifecycle: validation, the bankroll
// admission check on create, and delegation to the store.
type Service struct {
	store  Store
	logger zerolog.Logger
}

// NewService creates a progression service backed by the given store.
func NewService(store Store, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.With().Str("component", "leverage").Logger(),
	}
}

// Create validates the request, applies defaults, checks the admission
// invariant (stake must fit in the available bankroll) and stores the
// progression as active at day 1.
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*Leverage, error) {
	if strings.TrimSpace(req.Name) == "" || req.InitialValue == 0 {
		return nil, ErrNameRequired
	}
	if req.InitialValue <= 0 {
		return nil, ErrInitialValueInvalid
	}
	if req.Odd == 0 {
		req.Odd = DefaultOdd
	}
	if req.Odd <= 1 {
		return nil, ErrOddInvalid
	}
	if req.MaxBets == 0 {
		req.MaxBets = DefaultMaxBets
	}
	if req.MaxBets < 1 {
		return nil, ErrMaxBetsInvalid
	}

	facts, err := s.store.BankrollFacts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bankroll facts: %w", err)
	}
	if req.InitialValue > Available(facts) {
		return nil, ErrInsufficientBankroll
	}

	lev := &Leverage{
		ID:           uuid.NewString(),
		UserID:       userID,
		Name:         strings.TrimSpace(req.Name),
		InitialValue: req.InitialValue,
		Odd:          req.Odd,
		MaxBets:      req.MaxBets,
		CurrentDay:   1,
		Status:       StatusActive,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.CreateLeverage(ctx, lev); err != nil {
		return nil, fmt.Errorf("failed to create leverage: %w", err)
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("leverage_id", lev.ID).
		Float64("initial_value", lev.InitialValue).
		Msg("leverage created")

	return lev, nil
}

// List returns the user's progressions for one status, defaulting to
// active when the filter is empty.
func (s *Service) List(ctx context.Context, userID string, status Status) ([]*Leverage, error) {
	if status == "" {
		status = StatusActive
	}
	if status != StatusActive && status != StatusCompleted {
		return nil, ValidationError("status must be active or completed")
	}
	return s.store.ListLeverages(ctx, userID, status)
}

// SetDay persists a new current day for an owned active progression.
// The day is bounded by [1, MaxBets]; the store reports ErrNotFound for
// unowned or already-completed progressions.
func (s *Service) SetDay(ctx context.Context, userID, id string, day int) error {
	if day < 1 {
		return ErrDayOutOfRange
	}
	lev, err := s.store.GetLeverage(ctx, userID, id)
	if err != nil {
		return err
	}
	if day > lev.MaxBets {
		return ErrDayOutOfRange
	}
	return s.store.UpdateLeverageDay(ctx, userID, id, day)
}

// Reset puts an owned active progression back to day 1.
func (s *Service) Reset(ctx context.Context, userID, id string) error {
	return s.store.UpdateLeverageDay(ctx, userID, id, 1)
}

// Complete closes out a progression, snapshotting realized profit and
// final value from the day it was on. Closing an already-completed
// progression returns ErrNotFound.
func (s *Service) Complete(ctx context.Context, userID, id string) (*CloseResult, error) {
	lev, err := s.store.CompleteLeverage(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("leverage_id", id).
		Float64("profit", *lev.Profit).
		Msg("leverage completed")

	return &CloseResult{
		FinalValue:   *lev.FinalValue,
		Profit:       *lev.Profit,
		InitialValue: lev.InitialValue,
	}, nil
}

// Delete removes a progression regardless of status.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	return s.store.DeleteLeverage(ctx, userID, id)
}

// Bankroll returns the derived available bankroll together with the facts
// it was computed from. It is recomputed on every call, never cached.
func (s *Service) Bankroll(ctx context.Context, userID string) (float64, BankrollFacts, error) {
	facts, err := s.store.BankrollFacts(ctx, userID)
	if err != nil {
		return 0, BankrollFacts{}, fmt.Errorf("failed to load bankroll facts: %w", err)
	}
	return Available(facts), facts, nil
}
