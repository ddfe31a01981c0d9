package wagers

import (
	"context"
	"errors"
	"time"

	"github.com/dietbet/nfl-betting-platform/internal/storage"
)

// ErrUnknownWager cobre tanto id inexistente quanto aposta de outro usuário:
// a consulta nunca vaza se uma aposta alheia existe.
var ErrUnknownWager = errors.New("unknown wager")

// Store persiste apostas. Toda transição terminal passa pelo compare-and-set
// guardado de TransitionFromPending; não existe outra via de mutação de status.
type Store interface {
	Create(ctx context.Context, tx storage.Tx, w *Wager) error

	GetByIDAndUser(ctx context.Context, id, userID string) (*Wager, error)

	// ListByUser pagina o histórico do usuário, mais recente primeiro.
	// status vazio lista todos.
	ListByUser(ctx context.Context, userID string, status Status, page, perPage int) ([]Wager, error)

	ListPendingByEvent(ctx context.Context, eventID string) ([]Wager, error)

	// TransitionFromPending move a aposta para um status terminal somente se
	// ela ainda estiver PENDING. Retorna false se outra transição chegou
	// antes — o chamador não aplica nenhum efeito monetário nesse caso.
	TransitionFromPending(ctx context.Context, tx storage.Tx, id string, to Status, realizedCents int64, settledAt time.Time) (bool, error)
}
