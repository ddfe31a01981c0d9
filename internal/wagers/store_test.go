package wagers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func pending(userID, eventID string, placedAt time.Time) *Wager {
	return &Wager{
		ID:                   uuid.NewString(),
		UserID:               userID,
		EventID:              eventID,
		Pick:                 "Chiefs",
		StakeCents:           1_000,
		PotentialPayoutCents: 2_000,
		Status:               StatusPending,
		PlacedAt:             placedAt,
	}
}

func TestTransitionFromPendingWinsOnlyOnce(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	w := pending("alice", "ev1", time.Now())
	require.NoError(t, store.Create(ctx, nil, w))

	ok, err := store.TransitionFromPending(ctx, nil, w.ID, StatusWon, 2_000, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, ok)

	// segunda transição perde o compare-and-set
	ok, err = store.TransitionFromPending(ctx, nil, w.ID, StatusCancelled, 0, time.Now().UTC())
	require.NoError(t, err)
	require.False(t, ok)

	got, err := store.GetByIDAndUser(ctx, w.ID, "alice")
	require.NoError(t, err)
	require.Equal(t, StatusWon, got.Status)
	require.Equal(t, int64(2_000), got.RealizedPayoutCents)
}

func TestTransitionFromPendingUnknownWager(t *testing.T) {
	store := NewMemory()

	ok, err := store.TransitionFromPending(context.Background(), nil, "missing", StatusWon, 0, time.Now().UTC())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetByIDAndUserDoesNotLeakAcrossUsers(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	w := pending("alice", "ev1", time.Now())
	require.NoError(t, store.Create(ctx, nil, w))

	_, err := store.GetByIDAndUser(ctx, w.ID, "mallory")
	require.ErrorIs(t, err, ErrUnknownWager)
}

func TestListPendingByEventSkipsSettled(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	w1 := pending("alice", "ev1", time.Now())
	w2 := pending("bob", "ev1", time.Now().Add(time.Second))
	other := pending("carol", "ev2", time.Now())
	require.NoError(t, store.Create(ctx, nil, w1))
	require.NoError(t, store.Create(ctx, nil, w2))
	require.NoError(t, store.Create(ctx, nil, other))

	ok, err := store.TransitionFromPending(ctx, nil, w1.ID, StatusLost, 0, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, ok)

	got, err := store.ListPendingByEvent(ctx, "ev1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, w2.ID, got[0].ID)
}

func TestListByUserStatusFilterAndOrder(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()
	base := time.Now()

	var ids []string
	for i := 0; i < 3; i++ {
		w := pending("alice", "ev1", base.Add(time.Duration(i)*time.Second))
		require.NoError(t, store.Create(ctx, nil, w))
		ids = append(ids, w.ID)
	}

	ok, err := store.TransitionFromPending(ctx, nil, ids[0], StatusWon, 2_000, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, ok)

	// sem filtro: mais recente primeiro
	all, err := store.ListByUser(ctx, "alice", "", 1, 20)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, ids[2], all[0].ID)

	won, err := store.ListByUser(ctx, "alice", StatusWon, 1, 20)
	require.NoError(t, err)
	require.Len(t, won, 1)
	require.Equal(t, ids[0], won[0].ID)

	// página além do fim é vazia
	empty, err := store.ListByUser(ctx, "alice", "", 3, 2)
	require.NoError(t, err)
	require.Empty(t, empty)
}
