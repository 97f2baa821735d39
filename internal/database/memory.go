package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ViniDeiro/newalavancagem/internal/leverage"
)

// MemoryStore keeps everything in maps behind one mutex. It implements
// the same ownership and status semantics as the SQL stores so the
// service layer cannot tell them apart.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]*User
	leverages map[string]*leverage.Leverage
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]*User),
		leverages: make(map[string]*leverage.Leverage),
	}
}

func (m *MemoryStore) CreateUser(_ context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MemoryStore) GetUserByID(_ context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (m *MemoryStore) GetUserByName(_ context.Context, name string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.Name == name {
			cp := *user
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) CreateLeverage(_ context.Context, lev *leverage.Leverage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *lev
	m.leverages[lev.ID] = &cp
	return nil
}

func (m *MemoryStore) ListLeverages(_ context.Context, userID string, status leverage.Status) ([]*leverage.Leverage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*leverage.Leverage, 0)
	for _, lev := range m.leverages {
		if lev.UserID == userID && lev.Status == status {
			cp := *lev
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) GetLeverage(_ context.Context, userID, id string) (*leverage.Leverage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lev, ok := m.leverages[id]
	if !ok || lev.UserID != userID {
		return nil, leverage.ErrNotFound
	}
	cp := *lev
	return &cp, nil
}

func (m *MemoryStore) UpdateLeverageDay(_ context.Context, userID, id string, day int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lev, ok := m.leverages[id]
	if !ok || lev.UserID != userID || lev.Status != leverage.StatusActive {
		return leverage.ErrNotFound
	}
	lev.CurrentDay = day
	return nil
}

func (m *MemoryStore) CompleteLeverage(_ context.Context, userID, id string) (*leverage.Leverage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lev, ok := m.leverages[id]
	if !ok || lev.UserID != userID || lev.Status != leverage.StatusActive {
		return nil, leverage.ErrNotFound
	}

	finalValue, profit := lev.CloseSnapshot()
	now := time.Now().UTC()
	lev.Status = leverage.StatusCompleted
	lev.CompletedAt = &now
	lev.FinalValue = &finalValue
	lev.Profit = &profit

	cp := *lev
	return &cp, nil
}

func (m *MemoryStore) DeleteLeverage(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lev, ok := m.leverages[id]
	if !ok || lev.UserID != userID {
		return leverage.ErrNotFound
	}
	delete(m.leverages, id)
	return nil
}

func (m *MemoryStore) BankrollFacts(_ context.Context, userID string) (leverage.BankrollFacts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var facts leverage.BankrollFacts
	if user, ok := m.users[userID]; ok {
		facts.InitialBankroll = user.InitialBankroll
	}
	for _, lev := range m.leverages {
		if lev.UserID != userID {
			continue
		}
		switch lev.Status {
		case leverage.StatusActive:
			facts.ActiveStake += lev.InitialValue
		case leverage.StatusCompleted:
			if lev.Profit != nil {
				facts.RealizedProfit += *lev.Profit
			}
		}
	}
	return facts, nil
}

func (m *MemoryStore) HealthCheck(_ context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
