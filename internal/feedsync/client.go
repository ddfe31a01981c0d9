package feedsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrFeedUnavailable indica que o Game Data Feed não respondeu. Para o
// sincronizador isso é "sem update nesta rodada", nunca um erro propagado a
// usuários.
var ErrFeedUnavailable = errors.New("feed unavailable")

// ScoreboardGame é o registro opaco de um jogo como o feed o reporta. O feed
// é um oráculo externo eventualmente consistente: pode atrasar, repetir e
// mandar updates parciais.
type ScoreboardGame struct {
	ID        string    `json:"id"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	StartTime time.Time `json:"start_time"`
	Status    string    `json:"status"` // "scheduled" | "in_progress" | "final" | "cancelled"
	HomeScore int       `json:"home_score"`
	AwayScore int       `json:"away_score"`
	Winner    string    `json:"winner,omitempty"`
	Tie       bool      `json:"tie"`
	Week      int       `json:"week"`
	Season    int       `json:"season"`
}

type Scoreboard struct {
	Games []ScoreboardGame `json:"games"`
}

// Client consome o endpoint de scoreboard do feed.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(base string) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

// Scoreboard busca o estado corrente de todos os jogos conhecidos do feed.
func (c *Client) Scoreboard(ctx context.Context) (*Scoreboard, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/scoreboard", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: http %d", ErrFeedUnavailable, res.StatusCode)
	}

	var sb Scoreboard
	if err := json.NewDecoder(res.Body).Decode(&sb); err != nil {
		return nil, fmt.Errorf("decode scoreboard: %w", err)
	}
	return &sb, nil
}
