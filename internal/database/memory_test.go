package database

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ViniDeiro/newalavancagem/internal/leverage"
)

func testLogger() zerolog.Logger { return zerolog.Nop() }

func seedUser(t *testing.T, store *MemoryStore, id string, bankroll float64) {
	t.Helper()
	err := store.CreateUser(context.Background(), &User{
		ID:              id,
		Name:            "user-" + id,
		PasswordHash:    "x",
		Age:             30,
		InitialBankroll: bankroll,
		CreatedAt:       time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
}

func seedLeverage(t *testing.T, store *MemoryStore, id, userID string, stake float64, createdAt time.Time) {
	t.Helper()
	err := store.CreateLeverage(context.Background(), &leverage.Leverage{
		ID:           id,
		UserID:       userID,
		Name:         "run-" + id,
		InitialValue: stake,
		Odd:          1.1,
		MaxBets:      60,
		CurrentDay:   1,
		Status:       leverage.StatusActive,
		CreatedAt:    createdAt,
	})
	if err != nil {
		t.Fatalf("CreateLeverage() error = %v", err)
	}
}

func TestMemoryStoreUserLookup(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	seedUser(t, store, "u1", 1000)

	user, err := store.GetUserByID(ctx, "u1")
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if user == nil || user.InitialBankroll != 1000 {
		t.Fatalf("GetUserByID() = %+v, want bankroll 1000", user)
	}

	user, err = store.GetUserByName(ctx, "user-u1")
	if err != nil {
		t.Fatalf("GetUserByName() error = %v", err)
	}
	if user == nil || user.ID != "u1" {
		t.Fatalf("GetUserByName() = %+v, want u1", user)
	}

	// Absent users are (nil, nil), not an error.
	user, err = store.GetUserByID(ctx, "nope")
	if err != nil || user != nil {
		t.Fatalf("GetUserByID(absent) = (%+v, %v), want (nil, nil)", user, err)
	}
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	seedUser(t, store, "u1", 1000)

	base := time.Now().UTC()
	seedLeverage(t, store, "old", "u1", 100, base.Add(-2*time.Hour))
	seedLeverage(t, store, "new", "u1", 100, base)
	seedLeverage(t, store, "mid", "u1", 100, base.Add(-time.Hour))

	list, err := store.ListLeverages(ctx, "u1", leverage.StatusActive)
	if err != nil {
		t.Fatalf("ListLeverages() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	if list[0].ID != "new" || list[1].ID != "mid" || list[2].ID != "old" {
		t.Errorf("order = [%s %s %s], want [new mid old]", list[0].ID, list[1].ID, list[2].ID)
	}
}

func TestMemoryStoreCompleteIsOneShot(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	seedUser(t, store, "u1", 1000)
	seedLeverage(t, store, "l1", "u1", 200, time.Now().UTC())

	if err := store.UpdateLeverageDay(ctx, "u1", "l1", 3); err != nil {
		t.Fatalf("UpdateLeverageDay() error = %v", err)
	}

	lev, err := store.CompleteLeverage(ctx, "u1", "l1")
	if err != nil {
		t.Fatalf("CompleteLeverage() error = %v", err)
	}
	if lev.Status != leverage.StatusCompleted || lev.CompletedAt == nil {
		t.Fatalf("completed leverage = %+v, want completed status and timestamp", lev)
	}
	if math.Abs(*lev.FinalValue-242) > 1e-9 || math.Abs(*lev.Profit-42) > 1e-9 {
		t.Errorf("snapshot = (%v, %v), want (242, 42)", *lev.FinalValue, *lev.Profit)
	}

	if _, err := store.CompleteLeverage(ctx, "u1", "l1"); !errors.Is(err, leverage.ErrNotFound) {
		t.Fatalf("second CompleteLeverage() error = %v, want ErrNotFound", err)
	}

	// Completed rows reject day updates too.
	if err := store.UpdateLeverageDay(ctx, "u1", "l1", 5); !errors.Is(err, leverage.ErrNotFound) {
		t.Fatalf("UpdateLeverageDay() on completed error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreBankrollFacts(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	seedUser(t, store, "u1", 1000)
	seedUser(t, store, "u2", 500)

	seedLeverage(t, store, "a", "u1", 200, time.Now().UTC())
	seedLeverage(t, store, "b", "u1", 100, time.Now().UTC())
	seedLeverage(t, store, "other", "u2", 400, time.Now().UTC())

	if err := store.UpdateLeverageDay(ctx, "u1", "a", 3); err != nil {
		t.Fatalf("UpdateLeverageDay() error = %v", err)
	}
	if _, err := store.CompleteLeverage(ctx, "u1", "a"); err != nil {
		t.Fatalf("CompleteLeverage() error = %v", err)
	}

	facts, err := store.BankrollFacts(ctx, "u1")
	if err != nil {
		t.Fatalf("BankrollFacts() error = %v", err)
	}
	if math.Abs(facts.InitialBankroll-1000) > 1e-9 {
		t.Errorf("InitialBankroll = %v, want 1000", facts.InitialBankroll)
	}
	if math.Abs(facts.ActiveStake-100) > 1e-9 {
		t.Errorf("ActiveStake = %v, want 100", facts.ActiveStake)
	}
	if math.Abs(facts.RealizedProfit-42) > 1e-9 {
		t.Errorf("RealizedProfit = %v, want 42", facts.RealizedProfit)
	}
	if got := leverage.Available(facts); math.Abs(got-942) > 1e-9 {
		t.Errorf("Available() = %v, want 942", got)
	}
}

func TestMemoryStoreOwnershipScoping(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	seedUser(t, store, "u1", 1000)
	seedLeverage(t, store, "l1", "u1", 100, time.Now().UTC())

	if _, err := store.GetLeverage(ctx, "u2", "l1"); !errors.Is(err, leverage.ErrNotFound) {
		t.Errorf("GetLeverage() as u2 error = %v, want ErrNotFound", err)
	}
	if err := store.DeleteLeverage(ctx, "u2", "l1"); !errors.Is(err, leverage.ErrNotFound) {
		t.Errorf("DeleteLeverage() as u2 error = %v, want ErrNotFound", err)
	}

	// Still there for the owner.
	if _, err := store.GetLeverage(ctx, "u1", "l1"); err != nil {
		t.Errorf("GetLeverage() as owner error = %v", err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"}, testLogger())
	if err == nil {
		t.Fatal("Open() with unknown driver should fail")
	}
}
