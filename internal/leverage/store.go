package leverage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by store mutations when the target progression
// does not exist, is not owned by the caller, or is not in the status the
// operation requires. Two concurrent closes of the same progression are
// resolved by this: the loser's status filter matches nothing.
var ErrNotFound = errors.New("leverage not found")

// Store is the persistence contract for progressions. Implementations
// scope every operation to the owning user.
type Store interface {
	// CreateLeverage stores a new progression. ID, Status, CurrentDay and
	// CreatedAt must already be populated by the caller.
	CreateLeverage(ctx context.Context, lev *Leverage) error

	// ListLeverages returns the user's progressions with the given status,
	// newest first.
	ListLeverages(ctx context.Context, userID string, status Status) ([]*Leverage, error)

	// GetLeverage returns one owned progression, or ErrNotFound.
	GetLeverage(ctx context.Context, userID, id string) (*Leverage, error)

	// UpdateLeverageDay persists a new current day for an owned, active
	// progression.
	UpdateLeverageDay(ctx context.Context, userID, id string, day int) error

	// CompleteLeverage atomically reads the current day of an owned active
	// progression, snapshots final value and realized profit, and flips the
	// status to completed. It returns the updated record.
	CompleteLeverage(ctx context.Context, userID, id string) (*Leverage, error)

	// DeleteLeverage removes an owned progression regardless of status.
	DeleteLeverage(ctx context.Context, userID, id string) error

	// BankrollFacts returns the inputs to the available-bankroll
	// computation for one user.
	BankrollFacts(ctx context.Context, userID string) (BankrollFacts, error)
}
