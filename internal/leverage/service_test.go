package leverage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeStore is a minimal in-memory Store for exercising the service.
// The user's initial bankroll is fixed per fake.
type fakeStore struct {
	bankroll  float64
	leverages map[string]*Leverage
}

func newFakeStore(bankroll float64) *fakeStore {
	return &fakeStore{bankroll: bankroll, leverages: make(map[string]*Leverage)}
}

func (f *fakeStore) CreateLeverage(_ context.Context, lev *Leverage) error {
	cp := *lev
	f.leverages[lev.ID] = &cp
	return nil
}

func (f *fakeStore) ListLeverages(_ context.Context, userID string, status Status) ([]*Leverage, error) {
	var out []*Leverage
	for _, lev := range f.leverages {
		if lev.UserID == userID && lev.Status == status {
			cp := *lev
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeStore) GetLeverage(_ context.Context, userID, id string) (*Leverage, error) {
	lev, ok := f.leverages[id]
	if !ok || lev.UserID != userID {
		return nil, ErrNotFound
	}
	cp := *lev
	return &cp, nil
}

func (f *fakeStore) UpdateLeverageDay(_ context.Context, userID, id string, day int) error {
	lev, ok := f.leverages[id]
	if !ok || lev.UserID != userID || lev.Status != StatusActive {
		return ErrNotFound
	}
	lev.CurrentDay = day
	return nil
}

func (f *fakeStore) CompleteLeverage(_ context.Context, userID, id string) (*Leverage, error) {
	lev, ok := f.leverages[id]
	if !ok || lev.UserID != userID || lev.Status != StatusActive {
		return nil, ErrNotFound
	}
	finalValue, profit := lev.CloseSnapshot()
	now := time.Now().UTC()
	lev.Status = StatusCompleted
	lev.CompletedAt = &now
	lev.FinalValue = &finalValue
	lev.Profit = &profit
	cp := *lev
	return &cp, nil
}

func (f *fakeStore) DeleteLeverage(_ context.Context, userID, id string) error {
	lev, ok := f.leverages[id]
	if !ok || lev.UserID != userID {
		return ErrNotFound
	}
	delete(f.leverages, id)
	return nil
}

func (f *fakeStore) BankrollFacts(_ context.Context, userID string) (BankrollFacts, error) {
	facts := BankrollFacts{InitialBankroll: f.bankroll}
	for _, lev := range f.leverages {
		if lev.UserID != userID {
			continue
		}
		switch lev.Status {
		case StatusActive:
			facts.ActiveStake += lev.InitialValue
		case StatusCompleted:
			facts.RealizedProfit += *lev.Profit
		}
	}
	return facts, nil
}

func newTestService(bankroll float64) (*Service, *fakeStore) {
	store := newFakeStore(bankroll)
	return NewService(store, zerolog.Nop()), store
}

func TestCreateAppliesDefaults(t *testing.T) {
	svc, _ := newTestService(1000)

	lev, err := svc.Create(context.Background(), "u1", CreateRequest{Name: "btc run", InitialValue: 100})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if lev.Odd != DefaultOdd {
		t.Errorf("Odd = %v, want default %v", lev.Odd, DefaultOdd)
	}
	if lev.MaxBets != DefaultMaxBets {
		t.Errorf("MaxBets = %d, want default %d", lev.MaxBets, DefaultMaxBets)
	}
	if lev.CurrentDay != 1 {
		t.Errorf("CurrentDay = %d, want 1", lev.CurrentDay)
	}
	if lev.Status != StatusActive {
		t.Errorf("Status = %q, want %q", lev.Status, StatusActive)
	}
	if lev.ID == "" {
		t.Error("expected generated ID")
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(1000)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"missing name", CreateRequest{InitialValue: 100}, ErrNameRequired},
		{"missing initial value", CreateRequest{Name: "x"}, ErrNameRequired},
		{"negative initial value", CreateRequest{Name: "x", InitialValue: -5}, ErrInitialValueInvalid},
		{"odd at one", CreateRequest{Name: "x", InitialValue: 100, Odd: 1}, ErrOddInvalid},
		{"odd below one", CreateRequest{Name: "x", InitialValue: 100, Odd: 0.9}, ErrOddInvalid},
		{"negative max bets", CreateRequest{Name: "x", InitialValue: 100, MaxBets: -1}, ErrMaxBetsInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, "u1", tt.req); !errors.Is(err, tt.want) {
				t.Errorf("Create() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreateRejectsOverBankroll(t *testing.T) {
	svc, _ := newTestService(500)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "u1", CreateRequest{Name: "a", InitialValue: 300}); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}

	// 300 of 500 is locked, so 250 no longer fits.
	_, err := svc.Create(ctx, "u1", CreateRequest{Name: "b", InitialValue: 250})
	if !errors.Is(err, ErrInsufficientBankroll) {
		t.Fatalf("Create() error = %v, want ErrInsufficientBankroll", err)
	}

	// Exactly the remainder is still admissible.
	if _, err := svc.Create(ctx, "u1", CreateRequest{Name: "c", InitialValue: 200}); err != nil {
		t.Fatalf("Create() at exact remainder error = %v", err)
	}
}

func TestCompleteFreesBankroll(t *testing.T) {
	svc, _ := newTestService(1000)
	ctx := context.Background()

	lev, err := svc.Create(ctx, "u1", CreateRequest{Name: "run", InitialValue: 200})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.SetDay(ctx, "u1", lev.ID, 3); err != nil {
		t.Fatalf("SetDay() error = %v", err)
	}

	res, err := svc.Complete(ctx, "u1", lev.ID)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if !almostEqual(res.FinalValue, 242) {
		t.Errorf("FinalValue = %v, want 242", res.FinalValue)
	}
	if !almostEqual(res.Profit, 42) {
		t.Errorf("Profit = %v, want 42", res.Profit)
	}

	available, facts, err := svc.Bankroll(ctx, "u1")
	if err != nil {
		t.Fatalf("Bankroll() error = %v", err)
	}
	if !almostEqual(available, 1042) {
		t.Errorf("available = %v, want 1042", available)
	}
	if !almostEqual(facts.ActiveStake, 0) {
		t.Errorf("ActiveStake = %v, want 0", facts.ActiveStake)
	}
}

func TestCompleteTwiceReturnsNotFound(t *testing.T) {
	svc, _ := newTestService(1000)
	ctx := context.Background()

	lev, err := svc.Create(ctx, "u1", CreateRequest{Name: "run", InitialValue: 100})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Complete(ctx, "u1", lev.ID); err != nil {
		t.Fatalf("first Complete() error = %v", err)
	}
	if _, err := svc.Complete(ctx, "u1", lev.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Complete() error = %v, want ErrNotFound", err)
	}
}

func TestSetDayBounds(t *testing.T) {
	svc, _ := newTestService(1000)
	ctx := context.Background()

	lev, err := svc.Create(ctx, "u1", CreateRequest{Name: "run", InitialValue: 100, MaxBets: 10})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.SetDay(ctx, "u1", lev.ID, 0); !errors.Is(err, ErrDayOutOfRange) {
		t.Errorf("SetDay(0) error = %v, want ErrDayOutOfRange", err)
	}
	if err := svc.SetDay(ctx, "u1", lev.ID, 11); !errors.Is(err, ErrDayOutOfRange) {
		t.Errorf("SetDay(11) error = %v, want ErrDayOutOfRange", err)
	}
	if err := svc.SetDay(ctx, "u1", lev.ID, 10); err != nil {
		t.Errorf("SetDay(10) error = %v", err)
	}
}

func TestResetReturnsToDayOne(t *testing.T) {
	svc, store := newTestService(1000)
	ctx := context.Background()

	lev, err := svc.Create(ctx, "u1", CreateRequest{Name: "run", InitialValue: 100})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := svc.SetDay(ctx, "u1", lev.ID, 7); err != nil {
		t.Fatalf("SetDay() error = %v", err)
	}
	if err := svc.Reset(ctx, "u1", lev.ID); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	got, err := store.GetLeverage(ctx, "u1", lev.ID)
	if err != nil {
		t.Fatalf("GetLeverage() error = %v", err)
	}
	if got.CurrentDay != 1 {
		t.Errorf("CurrentDay after reset = %d, want 1", got.CurrentDay)
	}
}

func TestListDefaultsToActive(t *testing.T) {
	svc, _ := newTestService(1000)
	ctx := context.Background()

	a, err := svc.Create(ctx, "u1", CreateRequest{Name: "a", InitialValue: 100})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Create(ctx, "u1", CreateRequest{Name: "b", InitialValue: 100}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Complete(ctx, "u1", a.ID); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	active, err := svc.List(ctx, "u1", "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("len(active) = %d, want 1", len(active))
	}

	completed, err := svc.List(ctx, "u1", StatusCompleted)
	if err != nil {
		t.Fatalf("List(completed) error = %v", err)
	}
	if len(completed) != 1 {
		t.Fatalf("len(completed) = %d, want 1", len(completed))
	}

	if _, err := svc.List(ctx, "u1", "archived"); err == nil {
		t.Error("List() with bogus status should fail")
	}
}

func TestOwnershipIsolation(t *testing.T) {
	svc, _ := newTestService(1000)
	ctx := context.Background()

	lev, err := svc.Create(ctx, "u1", CreateRequest{Name: "run", InitialValue: 100})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.SetDay(ctx, "u2", lev.ID, 2); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetDay() as other user error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Complete(ctx, "u2", lev.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Complete() as other user error = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, "u2", lev.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() as other user error = %v, want ErrNotFound", err)
	}
}
