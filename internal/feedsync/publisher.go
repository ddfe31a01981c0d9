package feedsync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dietbet/nfl-betting-platform/internal/eventstore"
	"github.com/dietbet/nfl-betting-platform/internal/shared/kafka"
	ev "github.com/dietbet/nfl-betting-platform/pkg/contracts/events"
)

// KafkaSignaler publica o sinal de liquidação no tópico event_settlement,
// chaveado pelo event id. Entrega at-least-once; o settlement-worker é
// idempotente, então duplicata é inofensiva.
type KafkaSignaler struct {
	Writer *kafka.Writer
}

func NewKafkaSignaler(w *kafka.Writer) *KafkaSignaler { return &KafkaSignaler{Writer: w} }

func (p *KafkaSignaler) SignalSettlement(ctx context.Context, e eventstore.Event) error {
	payload := ev.EventSettlement{
		EventID:     e.ID,
		FeedEventID: e.FeedEventID,
		Status:      string(e.Status),
		HomeScore:   e.HomeScore,
		AwayScore:   e.AwayScore,
		Winner:      e.Winner,
		Ts:          time.Now().UTC(),
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return kafka.WriteJSON(ctx, p.Writer, e.ID, b)
}
