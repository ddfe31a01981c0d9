package betting

import (
	"errors"

	"github.com/dietbet/nfl-betting-platform/internal/eventstore"
	"github.com/dietbet/nfl-betting-platform/internal/ledger"
	"github.com/dietbet/nfl-betting-platform/internal/wagers"
)

// Taxonomia de erros de pré-condição. Todos retornam síncronos ao chamador,
// nunca disparam retry automático e sempre deixam o estado intacto.
var (
	ErrUnknownUser       = ledger.ErrUnknownUser
	ErrUnknownEvent      = eventstore.ErrUnknownEvent
	ErrUnknownWager      = wagers.ErrUnknownWager
	ErrInsufficientFunds = ledger.ErrInsufficientFunds

	// ErrBettingClosed: evento fora da janela de aposta (lock time passou,
	// ou status já não é SCHEDULED).
	ErrBettingClosed = errors.New("betting closed")

	// ErrInvalidStake: stake não positivo ou abaixo do mínimo configurado.
	ErrInvalidStake = errors.New("invalid stake")

	// ErrInvalidSelection: pick não identifica um dos dois participantes.
	ErrInvalidSelection = errors.New("invalid selection")

	// ErrNotCancellable: a aposta já saiu de PENDING. Um retry de cancel
	// sobre aposta já cancelada cai aqui — nunca em refund duplicado.
	ErrNotCancellable = errors.New("wager not cancellable")
)
