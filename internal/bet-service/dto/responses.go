package dto

import (
	"time"

	"github.com/dietbet/nfl-betting-platform/internal/eventstore"
	"github.com/dietbet/nfl-betting-platform/internal/ledger"
	"github.com/dietbet/nfl-betting-platform/internal/scores"
	"github.com/dietbet/nfl-betting-platform/internal/wagers"
)

type EventResponse struct {
	ID        string    `json:"id"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	StartTime time.Time `json:"start_time"`
	LockTime  time.Time `json:"lock_time"`
	Status    string    `json:"status"`
	HomeScore int       `json:"home_score"`
	AwayScore int       `json:"away_score"`
	Winner    string    `json:"winner,omitempty"`
	Tie       bool      `json:"tie"`
	Week      int       `json:"week"`
	Season    int       `json:"season"`
}

func FromEvent(e eventstore.Event, cutoff time.Duration) EventResponse {
	return EventResponse{
		ID:        e.ID,
		HomeTeam:  e.HomeTeam,
		AwayTeam:  e.AwayTeam,
		StartTime: e.StartTime,
		LockTime:  e.LockTime(cutoff),
		Status:    string(e.Status),
		HomeScore: e.HomeScore,
		AwayScore: e.AwayScore,
		Winner:    e.Winner,
		Tie:       e.IsTie,
		Week:      e.Week,
		Season:    e.Season,
	}
}

type LiveScoreResponse struct {
	EventID   string    `json:"event_id"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	Status    string    `json:"status"`
	HomeScore int       `json:"home_score"`
	AwayScore int       `json:"away_score"`
	UpdatedAt time.Time `json:"updated_at"`
}

func FromSnapshot(s scores.Snapshot) LiveScoreResponse {
	return LiveScoreResponse{
		EventID:   s.EventID,
		HomeTeam:  s.HomeTeam,
		AwayTeam:  s.AwayTeam,
		Status:    s.Status,
		HomeScore: s.HomeScore,
		AwayScore: s.AwayScore,
		UpdatedAt: s.UpdatedAt,
	}
}

type WagerResponse struct {
	ID                   string     `json:"id"`
	EventID              string     `json:"eventId"`
	Pick                 string     `json:"pick"`
	StakeCents           int64      `json:"stake_cents"`
	PotentialPayoutCents int64      `json:"potential_payout_cents"`
	RealizedPayoutCents  int64      `json:"realized_payout_cents"`
	Status               string     `json:"status"`
	PlacedAt             time.Time  `json:"placed_at"`
	SettledAt            *time.Time `json:"settled_at,omitempty"`
}

func FromWager(w wagers.Wager) WagerResponse {
	return WagerResponse{
		ID:                   w.ID,
		EventID:              w.EventID,
		Pick:                 w.Pick,
		StakeCents:           w.StakeCents,
		PotentialPayoutCents: w.PotentialPayoutCents,
		RealizedPayoutCents:  w.RealizedPayoutCents,
		Status:               string(w.Status),
		PlacedAt:             w.PlacedAt,
		SettledAt:            w.SettledAt,
	}
}

type WagerListResponse struct {
	Wagers []WagerResponse `json:"wagers"`
	Page   int             `json:"page"`
}

type WalletResponse struct {
	UserID       string `json:"userId"`
	BalanceCents int64  `json:"balance_cents"`
}

type LedgerEntryResponse struct {
	ID                string    `json:"id"`
	AmountCents       int64     `json:"amount_cents"`
	BalanceAfterCents int64     `json:"balance_after_cents"`
	Reason            string    `json:"reason"`
	CreatedAt         time.Time `json:"created_at"`
}

func FromEntry(e ledger.Entry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:                e.ID,
		AmountCents:       e.AmountCents,
		BalanceAfterCents: e.BalanceAfterCents,
		Reason:            e.Reason,
		CreatedAt:         e.CreatedAt,
	}
}
