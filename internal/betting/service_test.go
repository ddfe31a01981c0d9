package betting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dietbet/nfl-betting-platform/internal/eventstore"
	"github.com/dietbet/nfl-betting-platform/internal/ledger"
	"github.com/dietbet/nfl-betting-platform/internal/storage"
	"github.com/dietbet/nfl-betting-platform/internal/wagers"
)

var testParams = Params{
	Cutoff:           5 * time.Minute,
	MinStakeCents:    100,
	PayoutMultiplier: 2.0,
	WagersPerPage:    20,
}

func newFixture(t *testing.T, startingCents int64) (*Service, *ledger.Memory, *eventstore.Memory, *wagers.Memory) {
	t.Helper()
	led := ledger.NewMemory(startingCents)
	events := eventstore.NewMemory(testParams.Cutoff)
	ws := wagers.NewMemory()
	svc := NewService(zap.NewNop(), storage.NewMemRunner(), led, events, ws, testParams)
	return svc, led, events, ws
}

func seedScheduled(events *eventstore.Memory, start time.Time) string {
	return events.Seed(eventstore.Event{
		FeedEventID: "nfl-001",
		HomeTeam:    "Chiefs",
		AwayTeam:    "Bills",
		StartTime:   start,
		Status:      eventstore.StatusScheduled,
	})
}

func TestPlaceWagerDebitsStake(t *testing.T) {
	svc, led, events, _ := newFixture(t, 10_000)
	ctx := context.Background()
	eventID := seedScheduled(events, time.Now().Add(time.Hour))

	_, err := led.EnsureUser(ctx, nil, "alice")
	require.NoError(t, err)

	w, err := svc.PlaceWager(ctx, "alice", eventID, "Chiefs", 4_000)
	require.NoError(t, err)
	require.Equal(t, wagers.StatusPending, w.Status)
	require.Equal(t, int64(4_000), w.StakeCents)
	require.Equal(t, int64(8_000), w.PotentialPayoutCents)
	require.Equal(t, int64(0), w.RealizedPayoutCents)

	bal, err := led.Balance(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, int64(6_000), bal)
}

func TestPlaceWagerInsufficientFunds(t *testing.T) {
	svc, led, events, ws := newFixture(t, 10_000)
	ctx := context.Background()
	eventID := seedScheduled(events, time.Now().Add(time.Hour))

	_, err := led.EnsureUser(ctx, nil, "alice")
	require.NoError(t, err)

	_, err = svc.PlaceWager(ctx, "alice", eventID, "Chiefs", 15_000)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// nada mudou: saldo intacto, nenhuma aposta criada
	bal, err := led.Balance(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, int64(10_000), bal)

	pending, err := ws.ListPendingByEvent(ctx, eventID)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestPlaceWagerUnknownEvent(t *testing.T) {
	svc, led, _, _ := newFixture(t, 10_000)
	ctx := context.Background()

	_, err := led.EnsureUser(ctx, nil, "alice")
	require.NoError(t, err)

	_, err = svc.PlaceWager(ctx, "alice", "missing", "Chiefs", 4_000)
	require.ErrorIs(t, err, ErrUnknownEvent)
}

func TestPlaceWagerInvalidStake(t *testing.T) {
	svc, led, events, _ := newFixture(t, 10_000)
	ctx := context.Background()
	eventID := seedScheduled(events, time.Now().Add(time.Hour))

	_, err := led.EnsureUser(ctx, nil, "alice")
	require.NoError(t, err)

	for _, stake := range []int64{0, -100, 99} {
		_, err = svc.PlaceWager(ctx, "alice", eventID, "Chiefs", stake)
		require.ErrorIs(t, err, ErrInvalidStake)
	}
}

func TestPlaceWagerInvalidSelection(t *testing.T) {
	svc, led, events, _ := newFixture(t, 10_000)
	ctx := context.Background()
	eventID := seedScheduled(events, time.Now().Add(time.Hour))

	_, err := led.EnsureUser(ctx, nil, "alice")
	require.NoError(t, err)

	_, err = svc.PlaceWager(ctx, "alice", eventID, "Raiders", 4_000)
	require.ErrorIs(t, err, ErrInvalidSelection)
}

func TestPlaceWagerLockBoundary(t *testing.T) {
	svc, led, events, _ := newFixture(t, 10_000)
	ctx := context.Background()

	start := time.Date(2026, 9, 13, 17, 0, 0, 0, time.UTC)
	eventID := seedScheduled(events, start)
	lock := start.Add(-testParams.Cutoff)

	_, err := led.EnsureUser(ctx, nil, "alice")
	require.NoError(t, err)

	// um instante antes do lock ainda aceita
	svc.WithClock(func() time.Time { return lock.Add(-time.Millisecond) })
	_, err = svc.PlaceWager(ctx, "alice", eventID, "Chiefs", 1_000)
	require.NoError(t, err)

	// exatamente no lock time já está fechado
	svc.WithClock(func() time.Time { return lock })
	_, err = svc.PlaceWager(ctx, "alice", eventID, "Chiefs", 1_000)
	require.ErrorIs(t, err, ErrBettingClosed)
}

// failingWagerStore força erro no insert para exercitar o rollback do débito.
type failingWagerStore struct {
	wagers.Store
}

func (f *failingWagerStore) Create(ctx context.Context, tx storage.Tx, w *wagers.Wager) error {
	return errors.New("insert failed")
}

func TestPlaceWagerRollsBackDebitWhenInsertFails(t *testing.T) {
	led := ledger.NewMemory(10_000)
	events := eventstore.NewMemory(testParams.Cutoff)
	broken := &failingWagerStore{Store: wagers.NewMemory()}
	svc := NewService(zap.NewNop(), storage.NewMemRunner(), led, events, broken, testParams)

	ctx := context.Background()
	eventID := seedScheduled(events, time.Now().Add(time.Hour))

	_, err := led.EnsureUser(ctx, nil, "alice")
	require.NoError(t, err)

	_, err = svc.PlaceWager(ctx, "alice", eventID, "Chiefs", 4_000)
	require.Error(t, err)

	// débito desfeito junto com o insert que falhou
	bal, err := led.Balance(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, int64(10_000), bal)
}

func TestCancelWagerRefundsStake(t *testing.T) {
	svc, led, events, _ := newFixture(t, 10_000)
	ctx := context.Background()
	eventID := seedScheduled(events, time.Now().Add(time.Hour))

	_, err := led.EnsureUser(ctx, nil, "alice")
	require.NoError(t, err)

	w, err := svc.PlaceWager(ctx, "alice", eventID, "Chiefs", 4_000)
	require.NoError(t, err)

	cancelled, err := svc.CancelWager(ctx, "alice", w.ID)
	require.NoError(t, err)
	require.Equal(t, wagers.StatusCancelled, cancelled.Status)
	require.Equal(t, int64(0), cancelled.RealizedPayoutCents)

	bal, err := led.Balance(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, int64(10_000), bal)
}

func TestCancelWagerTwiceRefundsOnce(t *testing.T) {
	svc, led, events, _ := newFixture(t, 10_000)
	ctx := context.Background()
	eventID := seedScheduled(events, time.Now().Add(time.Hour))

	_, err := led.EnsureUser(ctx, nil, "alice")
	require.NoError(t, err)

	w, err := svc.PlaceWager(ctx, "alice", eventID, "Chiefs", 4_000)
	require.NoError(t, err)

	_, err = svc.CancelWager(ctx, "alice", w.ID)
	require.NoError(t, err)

	_, err = svc.CancelWager(ctx, "alice", w.ID)
	require.ErrorIs(t, err, ErrNotCancellable)

	bal, err := led.Balance(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, int64(10_000), bal)
}

func TestCancelWagerClosedAfterLock(t *testing.T) {
	svc, led, events, _ := newFixture(t, 10_000)
	ctx := context.Background()

	start := time.Date(2026, 9, 13, 17, 0, 0, 0, time.UTC)
	eventID := seedScheduled(events, start)
	lock := start.Add(-testParams.Cutoff)

	_, err := led.EnsureUser(ctx, nil, "alice")
	require.NoError(t, err)

	svc.WithClock(func() time.Time { return lock.Add(-time.Hour) })
	w, err := svc.PlaceWager(ctx, "alice", eventID, "Chiefs", 4_000)
	require.NoError(t, err)

	svc.WithClock(func() time.Time { return lock })
	_, err = svc.CancelWager(ctx, "alice", w.ID)
	require.ErrorIs(t, err, ErrBettingClosed)
}

func TestCancelWagerOfAnotherUserNotFound(t *testing.T) {
	svc, led, events, _ := newFixture(t, 10_000)
	ctx := context.Background()
	eventID := seedScheduled(events, time.Now().Add(time.Hour))

	_, err := led.EnsureUser(ctx, nil, "alice")
	require.NoError(t, err)

	w, err := svc.PlaceWager(ctx, "alice", eventID, "Chiefs", 4_000)
	require.NoError(t, err)

	// aposta alheia é indistinguível de inexistente
	_, err = svc.CancelWager(ctx, "mallory", w.ID)
	require.ErrorIs(t, err, ErrUnknownWager)
}

func TestGetUserWagersFilterAndPagination(t *testing.T) {
	svc, led, events, _ := newFixture(t, 1_000_000)
	ctx := context.Background()
	eventID := seedScheduled(events, time.Now().Add(time.Hour))

	_, err := led.EnsureUser(ctx, nil, "alice")
	require.NoError(t, err)

	base := time.Now()
	for i := 0; i < 25; i++ {
		svc.WithClock(func() time.Time { return base.Add(time.Duration(i) * time.Second) })
		_, err := svc.PlaceWager(ctx, "alice", eventID, "Chiefs", 100)
		require.NoError(t, err)
	}

	page1, err := svc.GetUserWagers(ctx, "alice", "", 1)
	require.NoError(t, err)
	require.Len(t, page1, 20)

	page2, err := svc.GetUserWagers(ctx, "alice", "", 2)
	require.NoError(t, err)
	require.Len(t, page2, 5)

	won, err := svc.GetUserWagers(ctx, "alice", wagers.StatusWon, 1)
	require.NoError(t, err)
	require.Empty(t, won)
}

func TestWalletCreatesUserOnFirstContact(t *testing.T) {
	svc, _, _, _ := newFixture(t, 1_000_000)
	ctx := context.Background()

	bal, err := svc.Wallet(ctx, "newcomer")
	require.NoError(t, err)
	require.Equal(t, int64(1_000_000), bal)

	entries, err := svc.WalletEntries(ctx, "newcomer", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
