package wagers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dietbet/nfl-betting-platform/internal/storage"
)

// Memory é o Store em memória usado nos testes.
type Memory struct {
	mu   sync.RWMutex
	byID map[string]*Wager
}

func NewMemory() *Memory {
	return &Memory{byID: make(map[string]*Wager)}
}

func (m *Memory) Create(_ context.Context, tx storage.Tx, w *Wager) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *w
	m.byID[cp.ID] = &cp

	if mt := storage.MemTxOf(tx); mt != nil {
		mt.OnRollback(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.byID, cp.ID)
		})
	}
	return nil
}

func (m *Memory) GetByIDAndUser(_ context.Context, id, userID string) (*Wager, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.byID[id]
	if !ok || w.UserID != userID {
		return nil, ErrUnknownWager
	}
	cp := *w
	return &cp, nil
}

func (m *Memory) ListByUser(_ context.Context, userID string, status Status, page, perPage int) ([]Wager, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var all []Wager
	for _, w := range m.byID {
		if w.UserID != userID {
			continue
		}
		if status != "" && w.Status != status {
			continue
		}
		all = append(all, *w)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].PlacedAt.After(all[j].PlacedAt) })

	if page < 1 {
		page = 1
	}
	start := (page - 1) * perPage
	if start >= len(all) {
		return nil, nil
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (m *Memory) ListPendingByEvent(_ context.Context, eventID string) ([]Wager, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Wager
	for _, w := range m.byID {
		if w.EventID == eventID && w.Status == StatusPending {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlacedAt.Before(out[j].PlacedAt) })
	return out, nil
}

func (m *Memory) TransitionFromPending(_ context.Context, tx storage.Tx, id string, to Status, realizedCents int64, settledAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.byID[id]
	if !ok || w.Status != StatusPending {
		return false, nil
	}

	prev := *w
	w.Status = to
	w.RealizedPayoutCents = realizedCents
	ts := settledAt
	w.SettledAt = &ts

	if mt := storage.MemTxOf(tx); mt != nil {
		mt.OnRollback(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			*w = prev
		})
	}
	return true, nil
}
