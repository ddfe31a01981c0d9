package feedsync

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Stream consome o canal de push do feed via WebSocket, complementando o
// poller: o mesmo Synchronizer absorve os dois caminhos, então updates
// duplicados entre push e poll são inofensivos.
type Stream struct {
	URL  string
	Log  *zap.Logger
	Sync *Synchronizer
}

// Run mantém a conexão com reconexão automática e backoff fixo.
func (s *Stream) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.Log.Info("context canceled, stopping feed stream")
			return
		default:
			if err := s.connectAndListen(ctx); err != nil {
				s.Log.Warn("feed stream closed", zap.Error(err))
				time.Sleep(3 * time.Second)
			}
		}
	}
}

func (s *Stream) connectAndListen(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.URL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	s.Log.Info("connected to feed stream", zap.String("url", s.URL))

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		var g ScoreboardGame
		if err := json.Unmarshal(message, &g); err != nil {
			s.Log.Warn("invalid stream message", zap.Error(err))
			continue
		}

		if err := s.Sync.Apply(ctx, g); err != nil {
			s.Log.Error("apply pushed update failed", zap.String("feed_event_id", g.ID), zap.Error(err))
		}
	}
}
