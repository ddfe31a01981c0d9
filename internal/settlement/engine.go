package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dietbet/nfl-betting-platform/internal/eventstore"
	"github.com/dietbet/nfl-betting-platform/internal/ledger"
	"github.com/dietbet/nfl-betting-platform/internal/storage"
	"github.com/dietbet/nfl-betting-platform/internal/wagers"
)

// ErrEventNotTerminal indica invocação para evento que ainda não chegou a
// FINAL/CANCELLED. Placar presente em jogo IN_PROGRESS nunca liquida nada:
// o gatilho é o status terminal, não a existência de scores.
var ErrEventNotTerminal = errors.New("event not terminal")

// Engine resolve todas as apostas PENDING de um evento terminal, exatamente
// uma vez. Idempotência é a garantia central: o compare-and-set por aposta
// ("só age se ainda PENDING") torna seguro reinvocar a liquidação quantas
// vezes o feed duplicar o sinal.
type Engine struct {
	log    *zap.Logger
	runner storage.Runner
	ledger ledger.Ledger
	events eventstore.Store
	wagers wagers.Store

	now func() time.Time
}

func NewEngine(log *zap.Logger, runner storage.Runner, led ledger.Ledger, events eventstore.Store, ws wagers.Store) *Engine {
	return &Engine{
		log:    log,
		runner: runner,
		ledger: led,
		events: events,
		wagers: ws,
		now:    time.Now,
	}
}

// Summary resume uma passada de liquidação.
type Summary struct {
	EventID string
	Settled int // apostas transicionadas nesta passada
	Skipped int // apostas que outra transição resolveu antes
}

// SettleEvent liquida as apostas pendentes do evento. Evento CANCELLED
// devolve o stake de cada aposta; evento FINAL compara o pick com o vencedor
// declarado (empate vira PUSH com devolução do stake).
func (e *Engine) SettleEvent(ctx context.Context, eventID string) (Summary, error) {
	ev, err := e.events.Get(ctx, eventID)
	if err != nil {
		return Summary{}, err
	}
	if !ev.Status.Terminal() {
		return Summary{}, ErrEventNotTerminal
	}

	pending, err := e.wagers.ListPendingByEvent(ctx, eventID)
	if err != nil {
		return Summary{}, fmt.Errorf("list pending wagers: %w", err)
	}

	sum := Summary{EventID: eventID}
	var errs []error
	for i := range pending {
		w := &pending[i]
		settled, err := e.settleOne(ctx, ev, w)
		if err != nil {
			// falha é fatal só para esta aposta; o retry do sinal resolve
			e.log.Error("settle wager failed",
				zap.String("wager_id", w.ID),
				zap.String("event_id", eventID),
				zap.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		if settled {
			sum.Settled++
		} else {
			sum.Skipped++
		}
	}

	e.log.Info("event settled",
		zap.String("event_id", eventID),
		zap.String("status", string(ev.Status)),
		zap.Int("settled", sum.Settled),
		zap.Int("skipped", sum.Skipped),
	)
	return sum, errors.Join(errs...)
}

// settleOne aplica a transição terminal e o crédito de uma aposta na mesma
// unidade atômica. Se o CAS perder a corrida (cancel do usuário, réplica da
// liquidação), nenhum efeito monetário é aplicado.
func (e *Engine) settleOne(ctx context.Context, ev *eventstore.Event, w *wagers.Wager) (bool, error) {
	status, creditCents, realizedCents, reason := grade(ev, w)

	settled := false
	err := e.runner.WithinTx(ctx, func(tx storage.Tx) error {
		ok, err := e.wagers.TransitionFromPending(ctx, tx, w.ID, status, realizedCents, e.now().UTC())
		if err != nil {
			return fmt.Errorf("transition: %w", err)
		}
		if !ok {
			return nil // outra transição chegou antes; não credita nada
		}
		settled = true
		if creditCents > 0 {
			if _, err := e.ledger.ApplyDelta(ctx, tx, w.UserID, creditCents, reason); err != nil {
				return fmt.Errorf("credit: %w", err)
			}
		}
		return nil
	})
	return settled, err
}

// grade decide o destino de uma aposta a partir do desfecho do evento.
func grade(ev *eventstore.Event, w *wagers.Wager) (status wagers.Status, creditCents, realizedCents int64, reason string) {
	if ev.Status == eventstore.StatusCancelled {
		// sem desfecho para comparar: devolve o stake, como num cancelamento
		return wagers.StatusCancelled, w.StakeCents, 0, "wager:event-cancelled:" + w.ID
	}

	switch {
	case ev.IsTie || ev.Winner == "":
		return wagers.StatusPush, w.StakeCents, w.StakeCents, "wager:push:" + w.ID
	case w.Pick == ev.Winner:
		return wagers.StatusWon, w.PotentialPayoutCents, w.PotentialPayoutCents, "wager:won:" + w.ID
	default:
		return wagers.StatusLost, 0, 0, "wager:lost:" + w.ID
	}
}
