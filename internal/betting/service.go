package betting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dietbet/nfl-betting-platform/internal/eventstore"
	"github.com/dietbet/nfl-betting-platform/internal/ledger"
	"github.com/dietbet/nfl-betting-platform/internal/storage"
	"github.com/dietbet/nfl-betting-platform/internal/wagers"
)

// Params são as regras da casa, vindas de configuração — nada aqui é
// constante mágica.
type Params struct {
	Cutoff           time.Duration // janela antes do kickoff em que apostas fecham
	MinStakeCents    int64
	PayoutMultiplier float64
	WagersPerPage    int
}

// Service valida e executa place/cancel contra Event Store + Wager Store +
// Ledger. As duas mutações de cada operação (delta de saldo e linha de
// aposta) entram na mesma unidade atômica: efeito parcial nunca é observável.
type Service struct {
	log    *zap.Logger
	runner storage.Runner
	ledger ledger.Ledger
	events eventstore.Store
	wagers wagers.Store
	params Params

	now func() time.Time // injetável nos testes de borda de lock
}

func NewService(log *zap.Logger, runner storage.Runner, led ledger.Ledger, events eventstore.Store, ws wagers.Store, params Params) *Service {
	return &Service{
		log:    log,
		runner: runner,
		ledger: led,
		events: events,
		wagers: ws,
		params: params,
		now:    time.Now,
	}
}

// WithClock troca a fonte de tempo; usado nos testes.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// PlaceWager valida as pré-condições em ordem (cada uma com sua falha
// distinta) e, passando todas, debita o stake e insere a aposta PENDING como
// unidade atômica. Se o insert falhar depois do débito, tudo reverte.
func (s *Service) PlaceWager(ctx context.Context, userID, eventID, pick string, stakeCents int64) (*wagers.Wager, error) {
	ev, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if !ev.Bettable(now, s.params.Cutoff) {
		return nil, ErrBettingClosed
	}

	if stakeCents <= 0 || stakeCents < s.params.MinStakeCents {
		return nil, ErrInvalidStake
	}

	if pick != ev.HomeTeam && pick != ev.AwayTeam {
		return nil, ErrInvalidSelection
	}

	w := &wagers.Wager{
		ID:                   uuid.NewString(),
		UserID:               userID,
		EventID:              ev.ID,
		Pick:                 pick,
		StakeCents:           stakeCents,
		PotentialPayoutCents: int64(float64(stakeCents) * s.params.PayoutMultiplier),
		Status:               wagers.StatusPending,
		PlacedAt:             now,
	}

	err = s.runner.WithinTx(ctx, func(tx storage.Tx) error {
		// primeiro contato cria o usuário com o saldo inicial
		if _, err := s.ledger.EnsureUser(ctx, tx, userID); err != nil {
			return err
		}
		if _, err := s.ledger.ApplyDelta(ctx, tx, userID, -stakeCents, "wager:place:"+w.ID); err != nil {
			return err
		}
		if err := s.wagers.Create(ctx, tx, w); err != nil {
			return fmt.Errorf("create wager: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("wager placed",
		zap.String("wager_id", w.ID),
		zap.String("user_id", userID),
		zap.String("event_id", ev.ID),
		zap.Int64("stake_cents", stakeCents),
	)
	return w, nil
}

// CancelWager devolve o stake e marca a aposta CANCELLED, exatamente uma vez.
// O compare-and-set em PENDING garante que um retry (ou uma corrida com a
// liquidação) falha com ErrNotCancellable em vez de refund duplicado.
func (s *Service) CancelWager(ctx context.Context, userID, wagerID string) (*wagers.Wager, error) {
	w, err := s.wagers.GetByIDAndUser(ctx, wagerID, userID)
	if err != nil {
		return nil, err
	}

	if w.Status != wagers.StatusPending {
		return nil, ErrNotCancellable
	}

	ev, err := s.events.Get(ctx, w.EventID)
	if err != nil {
		return nil, fmt.Errorf("load event for cancel: %w", err)
	}

	now := s.now().UTC()
	if ev.Status != eventstore.StatusScheduled || !now.Before(ev.LockTime(s.params.Cutoff)) {
		return nil, ErrBettingClosed
	}

	err = s.runner.WithinTx(ctx, func(tx storage.Tx) error {
		ok, err := s.wagers.TransitionFromPending(ctx, tx, w.ID, wagers.StatusCancelled, 0, now)
		if err != nil {
			return fmt.Errorf("transition wager: %w", err)
		}
		if !ok {
			return ErrNotCancellable
		}
		if _, err := s.ledger.ApplyDelta(ctx, tx, userID, w.StakeCents, "wager:cancel:"+w.ID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.Status = wagers.StatusCancelled
	w.SettledAt = &now

	s.log.Info("wager cancelled",
		zap.String("wager_id", w.ID),
		zap.String("user_id", userID),
		zap.Int64("refund_cents", w.StakeCents),
	)
	return w, nil
}

// ListBettable retorna os eventos abertos para aposta, com o lock avaliado
// agora — nunca um status pré-gravado.
func (s *Service) ListBettable(ctx context.Context) ([]eventstore.Event, error) {
	return s.events.ListBettable(ctx, s.now().UTC())
}

// ListWeek retorna os jogos de uma rodada, incluindo os já encerrados.
func (s *Service) ListWeek(ctx context.Context, season, week int) ([]eventstore.Event, error) {
	return s.events.ListByWeek(ctx, season, week)
}

// GetUserWagers pagina o histórico de apostas do usuário, filtro opcional
// por status.
func (s *Service) GetUserWagers(ctx context.Context, userID string, status wagers.Status, page int) ([]wagers.Wager, error) {
	return s.wagers.ListByUser(ctx, userID, status, page, s.params.WagersPerPage)
}

// Wallet garante o cadastro do usuário (saldo inicial no primeiro contato) e
// retorna o saldo corrente.
func (s *Service) Wallet(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := s.runner.WithinTx(ctx, func(tx storage.Tx) error {
		b, err := s.ledger.EnsureUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		balance = b
		return nil
	})
	return balance, err
}

// WalletEntries retorna a trilha de auditoria recente do usuário.
func (s *Service) WalletEntries(ctx context.Context, userID string, limit int) ([]ledger.Entry, error) {
	return s.ledger.Entries(ctx, userID, limit)
}
