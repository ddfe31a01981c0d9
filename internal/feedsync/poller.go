package feedsync

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Poller consulta o scoreboard do feed em cadência fixa e repassa cada jogo
// ao Synchronizer. Feed fora do ar vale como "sem update": loga e espera o
// próximo tick.
type Poller struct {
	Log      *zap.Logger
	Client   *Client
	Sync     *Synchronizer
	Interval time.Duration

	OnPoll func() // métricas (counter++)
}

// Run executa o loop de polling até o contexto ser cancelado. A primeira
// consulta sai imediatamente, antes do primeiro tick.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	p.pollOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			p.Log.Info("poller stopping")
			return ctx.Err()
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

func (p *Poller) pollOnce(ctx context.Context) {
	if p.OnPoll != nil {
		p.OnPoll()
	}
	sb, err := p.Client.Scoreboard(ctx)
	if err != nil {
		if errors.Is(err, ErrFeedUnavailable) {
			p.Log.Warn("feed unreachable, skipping poll", zap.Error(err))
			return
		}
		p.Log.Error("scoreboard fetch failed", zap.Error(err))
		return
	}

	for _, g := range sb.Games {
		if err := p.Sync.Apply(ctx, g); err != nil {
			p.Log.Error("apply feed update failed",
				zap.String("feed_event_id", g.ID),
				zap.Error(err),
			)
			// segue para os demais jogos; o próximo poll re-tenta este
		}
	}
}
