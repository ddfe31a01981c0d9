package feedsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dietbet/nfl-betting-platform/internal/eventstore"
	"github.com/dietbet/nfl-betting-platform/internal/scores"
)

// ErrBadPayload indica um registro do feed que não dá para interpretar
// (status desconhecido, sem id). Descartado inteiro, nada é aplicado.
var ErrBadPayload = errors.New("bad feed payload")

// Settler recebe o sinal de que um evento virou terminal. Em produção é o
// publisher Kafka; nos testes, o engine direto.
type Settler interface {
	SignalSettlement(ctx context.Context, ev eventstore.Event) error
}

// Synchronizer ingere updates do feed no Event Store e dispara o sinal de
// liquidação na transição para terminal. Tolerância a duplicata e
// out-of-order mora no Event Store e no engine, não aqui.
type Synchronizer struct {
	log     *zap.Logger
	store   eventstore.Store
	scores  *scores.Cache // opcional; nil desliga o snapshot ao vivo
	settler Settler
}

func NewSynchronizer(log *zap.Logger, store eventstore.Store, sc *scores.Cache, settler Settler) *Synchronizer {
	return &Synchronizer{log: log, store: store, scores: sc, settler: settler}
}

// Apply processa um registro do feed. Updates fora de ordem são descartados
// com log, nunca propagados como erro — o estado do Event Store fica intacto.
func (s *Synchronizer) Apply(ctx context.Context, g ScoreboardGame) error {
	u, err := toFeedUpdate(g)
	if err != nil {
		s.log.Warn("feed payload discarded", zap.String("feed_event_id", g.ID), zap.Error(err))
		return nil
	}

	res, err := s.store.RecordFeedUpdate(ctx, u)
	if errors.Is(err, eventstore.ErrStaleUpdate) {
		s.log.Warn("stale feed update discarded",
			zap.String("feed_event_id", g.ID),
			zap.String("status", g.Status),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("record feed update: %w", err)
	}

	s.refreshSnapshot(ctx, res.EventID, g)

	if res.BecameTerminal {
		ev, err := s.store.Get(ctx, res.EventID)
		if err != nil {
			return fmt.Errorf("load terminal event: %w", err)
		}
		if err := s.settler.SignalSettlement(ctx, *ev); err != nil {
			return fmt.Errorf("signal settlement: %w", err)
		}
		s.log.Info("event reached terminal state",
			zap.String("event_id", res.EventID),
			zap.String("status", string(ev.Status)),
		)
	}
	return nil
}

// refreshSnapshot atualiza o placar ao vivo no Redis; melhor esforço, falha
// não bloqueia o ingest.
func (s *Synchronizer) refreshSnapshot(ctx context.Context, eventID string, g ScoreboardGame) {
	if s.scores == nil {
		return
	}
	snap := scores.Snapshot{
		EventID:   eventID,
		HomeTeam:  g.HomeTeam,
		AwayTeam:  g.AwayTeam,
		Status:    g.Status,
		HomeScore: g.HomeScore,
		AwayScore: g.AwayScore,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.scores.SetCurrent(ctx, snap); err != nil {
		s.log.Warn("live score cache set failed", zap.String("event_id", eventID), zap.Error(err))
	}
}

// toFeedUpdate traduz o registro do feed para o formato do Event Store.
func toFeedUpdate(g ScoreboardGame) (eventstore.FeedUpdate, error) {
	if g.ID == "" {
		return eventstore.FeedUpdate{}, fmt.Errorf("%w: missing id", ErrBadPayload)
	}

	var st eventstore.Status
	switch g.Status {
	case "scheduled", "pre":
		st = eventstore.StatusScheduled
	case "in_progress":
		st = eventstore.StatusInProgress
	case "final":
		st = eventstore.StatusFinal
	case "cancelled", "postponed":
		st = eventstore.StatusCancelled
	default:
		return eventstore.FeedUpdate{}, fmt.Errorf("%w: status %q", ErrBadPayload, g.Status)
	}

	return eventstore.FeedUpdate{
		FeedEventID: g.ID,
		HomeTeam:    g.HomeTeam,
		AwayTeam:    g.AwayTeam,
		StartTime:   g.StartTime,
		Status:      st,
		HomeScore:   g.HomeScore,
		AwayScore:   g.AwayScore,
		Winner:      g.Winner,
		IsTie:       g.Tie,
		Week:        g.Week,
		Season:      g.Season,
	}, nil
}
