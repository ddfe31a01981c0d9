package eventstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory é o Store em memória usado nos testes.
type Memory struct {
	mu     sync.RWMutex
	cutoff time.Duration
	byID   map[string]*Event
	byFeed map[string]string // feed_event_id -> id
}

func NewMemory(cutoff time.Duration) *Memory {
	return &Memory{
		cutoff: cutoff,
		byID:   make(map[string]*Event),
		byFeed: make(map[string]string),
	}
}

func (m *Memory) Get(_ context.Context, id string) (*Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.byID[id]
	if !ok {
		return nil, ErrUnknownEvent
	}
	cp := *e
	return &cp, nil
}

func (m *Memory) GetByFeedID(_ context.Context, feedEventID string) (*Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byFeed[feedEventID]
	if !ok {
		return nil, ErrUnknownEvent
	}
	cp := *m.byID[id]
	return &cp, nil
}

func (m *Memory) ListBettable(_ context.Context, asOf time.Time) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Event
	for _, e := range m.byID {
		if e.Bettable(asOf, m.cutoff) {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *Memory) ListByWeek(_ context.Context, season, week int) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Event
	for _, e := range m.byID {
		if e.Season == season && e.Week == week {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (m *Memory) RecordFeedUpdate(_ context.Context, u FeedUpdate) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, known := m.byFeed[u.FeedEventID]
	if !known {
		e := &Event{
			ID:          uuid.NewString(),
			FeedEventID: u.FeedEventID,
			HomeTeam:    u.HomeTeam,
			AwayTeam:    u.AwayTeam,
			StartTime:   u.StartTime,
			Status:      u.Status,
			HomeScore:   u.HomeScore,
			AwayScore:   u.AwayScore,
			Winner:      u.Winner,
			IsTie:       u.IsTie,
			Week:        u.Week,
			Season:      u.Season,
			CreatedAt:   time.Now().UTC(),
			UpdatedAt:   time.Now().UTC(),
		}
		m.byID[e.ID] = e
		m.byFeed[e.FeedEventID] = e.ID
		return Result{EventID: e.ID, Applied: true, BecameTerminal: u.Status.Terminal()}, nil
	}

	e := m.byID[id]
	apply, becameTerminal, err := transition(e.Status, u.Status)
	if err != nil {
		return Result{EventID: e.ID}, err
	}
	if !apply {
		return Result{EventID: e.ID}, nil
	}

	e.Status = u.Status
	e.HomeScore = u.HomeScore
	e.AwayScore = u.AwayScore
	e.Winner = u.Winner
	e.IsTie = u.IsTie
	if !u.StartTime.IsZero() {
		e.StartTime = u.StartTime
	}
	e.UpdatedAt = time.Now().UTC()

	return Result{EventID: e.ID, Applied: true, BecameTerminal: becameTerminal}, nil
}

// Seed insere um evento direto no store; atalho dos testes.
func (m *Memory) Seed(e Event) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	cp := e
	m.byID[cp.ID] = &cp
	if cp.FeedEventID != "" {
		m.byFeed[cp.FeedEventID] = cp.ID
	}
	return cp.ID
}
