package scores

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Snapshot é o placar ao vivo de um evento, como último reportado pelo feed.
// Puramente informativo: liquidação nunca lê daqui.
type Snapshot struct {
	EventID   string    `json:"event_id"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	Status    string    `json:"status"`
	HomeScore int       `json:"home_score"`
	AwayScore int       `json:"away_score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Cache guarda o snapshot corrente de cada evento no Redis com TTL.
type Cache struct {
	Client *redis.Client
	TTL    time.Duration
}

func New(c *redis.Client, ttl time.Duration) *Cache {
	return &Cache{Client: c, TTL: ttl}
}

func key(eventID string) string { return "scores:current:" + eventID }

// SetCurrent grava o placar corrente do evento.
func (c *Cache) SetCurrent(ctx context.Context, s Snapshot) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, key(s.EventID), b, c.TTL).Err()
}

// GetCurrent lê o placar corrente; ok=false quando o cache está frio.
func (c *Cache) GetCurrent(ctx context.Context, eventID string) (Snapshot, bool, error) {
	b, err := c.Client.Get(ctx, key(eventID)).Bytes()
	if err == redis.Nil {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return Snapshot{}, false, err
	}
	return s, true, nil
}
