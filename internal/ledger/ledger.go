package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/dietbet/nfl-betting-platform/internal/storage"
)

var (
	// ErrUnknownUser indica operação sobre usuário inexistente.
	ErrUnknownUser = errors.New("unknown user")

	// ErrInsufficientFunds indica que o delta deixaria o saldo negativo.
	// Saldo nunca fica negativo: a validação falha antes de qualquer mutação.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Entry é o registro append-only da trilha de auditoria: cada delta aplicado
// gera exatamente uma entrada com o saldo resultante.
type Entry struct {
	ID                string
	UserID            string
	AmountCents       int64
	BalanceAfterCents int64
	Reason            string
	CreatedAt         time.Time
}

// Ledger guarda o saldo de cada usuário e aplica deltas assinados de forma
// atômica. Mutação só acontece via ApplyDelta, dentro de uma unidade do
// storage.Runner; deltas concorrentes sobre o mesmo usuário serializam.
type Ledger interface {
	// EnsureUser cria o usuário com o saldo inicial configurado no primeiro
	// contato e retorna o saldo corrente.
	EnsureUser(ctx context.Context, tx storage.Tx, userID string) (int64, error)

	// ApplyDelta ajusta o saldo pelo valor assinado e grava a entrada de
	// auditoria. Falha com ErrInsufficientFunds se o resultado for negativo
	// e ErrUnknownUser se o usuário não existir; nos dois casos nada muda.
	// reason é tag de auditoria, não afeta comportamento.
	ApplyDelta(ctx context.Context, tx storage.Tx, userID string, amountCents int64, reason string) (int64, error)

	// Balance lê o saldo corrente sem lock (adequado para GETs).
	Balance(ctx context.Context, userID string) (int64, error)

	// Entries retorna as entradas de auditoria mais recentes do usuário.
	Entries(ctx context.Context, userID string, limit int) ([]Entry, error)
}
