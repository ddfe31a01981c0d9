package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/dietbet/nfl-betting-platform/internal/settlement"
	"github.com/dietbet/nfl-betting-platform/pkg/contracts/events"
)

// Processor consome sinais de liquidação do Kafka e invoca o engine.
// Entrega é at-least-once; o engine é idempotente, então reprocessar a mesma
// mensagem nunca credita duas vezes. Mensagem indecifrável ou evento
// não-terminal vai para a DLQ em vez de travar a partição.
type Processor struct {
	Log    *zap.Logger
	Reader *kafka.Reader
	Engine *settlement.Engine
	DLQ    *kafka.Writer // opcional; nil descarta com log

	OnConsumed func()       // métricas (counter++)
	OnSettled  func(int)    // métricas: apostas liquidadas na passada
	OnError    func(string) // métricas por fase
}

// Run inicia o loop principal de consumo e liquidação
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		var sig events.EventSettlement
		if err := json.Unmarshal(m.Value, &sig); err != nil {
			p.Log.Warn("invalid message", zap.Error(err))
			if p.OnError != nil {
				p.OnError("decode")
			}
			p.toDLQ(ctx, m, "decode: "+err.Error())
			continue
		}

		sum, err := p.Engine.SettleEvent(ctx, sig.EventID)
		if err != nil {
			if errors.Is(err, settlement.ErrEventNotTerminal) {
				// sinal adiantado ou corrompido; não adianta re-tentar igual
				p.Log.Warn("settlement signal for non-terminal event",
					zap.String("event_id", sig.EventID))
				if p.OnError != nil {
					p.OnError("not_terminal")
				}
				p.toDLQ(ctx, m, "event not terminal")
				continue
			}
			// falha parcial de infra: o CAS protege re-execução, deixa o
			// próximo sinal (ou replay manual da DLQ) completar o resto
			p.Log.Error("settlement failed", zap.String("event_id", sig.EventID), zap.Error(err))
			if p.OnError != nil {
				p.OnError("settle")
			}
			p.toDLQ(ctx, m, "settle: "+err.Error())
			continue
		}

		if p.OnSettled != nil {
			p.OnSettled(sum.Settled)
		}
		p.Log.Info("settlement signal processed",
			zap.String("event_id", sig.EventID),
			zap.Int("settled", sum.Settled),
			zap.Int("skipped", sum.Skipped),
		)
	}
}

func (p *Processor) toDLQ(ctx context.Context, m kafka.Message, reason string) {
	if p.DLQ == nil {
		return
	}
	out := kafka.Message{
		Key:   m.Key,
		Value: m.Value,
		Headers: append(m.Headers, kafka.Header{
			Key: "x-dlq-reason", Value: []byte(reason),
		}),
	}
	if err := p.DLQ.WriteMessages(ctx, out); err != nil {
		p.Log.Error("dlq write failed", zap.Error(err))
		if p.OnError != nil {
			p.OnError("dlq")
		}
	}
}
