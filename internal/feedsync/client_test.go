package feedsync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dietbet/nfl-betting-platform/internal/eventstore"
)

func TestClientScoreboard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/scoreboard", r.URL.Path)
		_ = json.NewEncoder(w).Encode(Scoreboard{Games: []ScoreboardGame{game("scheduled")}})
	}))
	defer srv.Close()

	sb, err := NewClient(srv.URL).Scoreboard(context.Background())
	require.NoError(t, err)
	require.Len(t, sb.Games, 1)
	require.Equal(t, "nfl-001", sb.Games[0].ID)
}

func TestClientScoreboardServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Scoreboard(context.Background())
	require.ErrorIs(t, err, ErrFeedUnavailable)
}

func TestClientScoreboardUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // porta fechada

	_, err := NewClient(srv.URL).Scoreboard(context.Background())
	require.ErrorIs(t, err, ErrFeedUnavailable)
}

func TestPollerAppliesGames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Scoreboard{Games: []ScoreboardGame{game("scheduled")}})
	}))
	defer srv.Close()

	store := eventstore.NewMemory(5 * time.Minute)
	sync := NewSynchronizer(zap.NewNop(), store, nil, &recordingSettler{})
	poller := &Poller{
		Log:      zap.NewNop(),
		Client:   NewClient(srv.URL),
		Sync:     sync,
		Interval: 10 * time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := poller.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = store.GetByFeedID(context.Background(), "nfl-001")
	require.NoError(t, err)
}

func TestPollerToleratesFeedOutage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	store := eventstore.NewMemory(5 * time.Minute)
	sync := NewSynchronizer(zap.NewNop(), store, nil, &recordingSettler{})
	poller := &Poller{
		Log:      zap.NewNop(),
		Client:   NewClient(srv.URL),
		Sync:     sync,
		Interval: 10 * time.Millisecond,
	}

	// feed fora do ar não derruba o loop; só o contexto encerra
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	err := poller.Run(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
