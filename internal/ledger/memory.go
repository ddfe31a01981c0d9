package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dietbet/nfl-betting-platform/internal/storage"
)

// Memory é o Ledger em memória usado nos testes de unidade. Mutações feitas
// dentro de um MemTx registram a operação inversa no journal, preservando a
// semântica tudo-ou-nada do Postgres.
type Memory struct {
	mu            sync.RWMutex
	startingCents int64
	balances      map[string]int64
	entries       map[string][]Entry
}

func NewMemory(startingCents int64) *Memory {
	return &Memory{
		startingCents: startingCents,
		balances:      make(map[string]int64),
		entries:       make(map[string][]Entry),
	}
}

func (m *Memory) EnsureUser(_ context.Context, tx storage.Tx, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if bal, ok := m.balances[userID]; ok {
		return bal, nil
	}

	m.balances[userID] = m.startingCents
	m.appendEntry(userID, m.startingCents, m.startingCents, "signup:starting-balance")

	if mt := storage.MemTxOf(tx); mt != nil {
		mt.OnRollback(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.balances, userID)
			delete(m.entries, userID)
		})
	}
	return m.startingCents, nil
}

func (m *Memory) ApplyDelta(_ context.Context, tx storage.Tx, userID string, amountCents int64, reason string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	balance, ok := m.balances[userID]
	if !ok {
		return 0, ErrUnknownUser
	}

	newBalance := balance + amountCents
	if newBalance < 0 {
		return 0, ErrInsufficientFunds
	}

	m.balances[userID] = newBalance
	m.appendEntry(userID, amountCents, newBalance, reason)

	if mt := storage.MemTxOf(tx); mt != nil {
		mt.OnRollback(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			m.balances[userID] = balance
			m.entries[userID] = m.entries[userID][:len(m.entries[userID])-1]
		})
	}
	return newBalance, nil
}

func (m *Memory) Balance(_ context.Context, userID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	balance, ok := m.balances[userID]
	if !ok {
		return 0, ErrUnknownUser
	}
	return balance, nil
}

func (m *Memory) Entries(_ context.Context, userID string, limit int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.entries[userID]
	out := make([]Entry, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// appendEntry exige m.mu já adquirido.
func (m *Memory) appendEntry(userID string, amount, after int64, reason string) {
	m.entries[userID] = append(m.entries[userID], Entry{
		ID:                uuid.NewString(),
		UserID:            userID,
		AmountCents:       amount,
		BalanceAfterCents: after,
		Reason:            reason,
		CreatedAt:         time.Now().UTC(),
	})
}
