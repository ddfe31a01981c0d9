package events

import "time"

// EventSettlement é publicado no tópico "event_settlement" quando o feed
// reporta a transição de um evento para estado terminal (FINAL ou CANCELLED).
// Entrega at-least-once: o consumidor precisa ser idempotente.
type EventSettlement struct {
	EventID     string    `json:"event_id"`
	FeedEventID string    `json:"feed_event_id"`
	Status      string    `json:"status"` // "FINAL" | "CANCELLED"
	HomeScore   int       `json:"home_score"`
	AwayScore   int       `json:"away_score"`
	Winner      string    `json:"winner,omitempty"` // vazio em empate ou cancelamento
	Ts          time.Time `json:"ts"`
}
