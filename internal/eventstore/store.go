package eventstore

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnknownEvent indica consulta por evento inexistente.
	ErrUnknownEvent = errors.New("unknown event")

	// ErrStaleUpdate indica update do feed fora de ordem (estágio anterior a
	// um já registrado). O update é descartado inteiro, nada é aplicado.
	ErrStaleUpdate = errors.New("stale feed update")
)

// Store guarda o estado corrente de cada evento apostável. Mutação só via
// RecordFeedUpdate; o estágio de lock é derivado do relógio na leitura.
type Store interface {
	Get(ctx context.Context, id string) (*Event, error)
	GetByFeedID(ctx context.Context, feedEventID string) (*Event, error)

	// ListBettable retorna eventos SCHEDULED cujo lock time ainda não passou
	// em asOf, ordenados por kickoff.
	ListBettable(ctx context.Context, asOf time.Time) ([]Event, error)

	// ListByWeek retorna os jogos de uma rodada (semana/temporada).
	ListByWeek(ctx context.Context, season, week int) ([]Event, error)

	// RecordFeedUpdate aplica um update idempotente do feed: cria o evento no
	// primeiro contato, avança status de forma monotônica e grava o resultado
	// final. Replays de terminal são noop; regressões retornam ErrStaleUpdate
	// sem tocar no estado.
	RecordFeedUpdate(ctx context.Context, u FeedUpdate) (Result, error)
}
