package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dietbet/nfl-betting-platform/internal/bet-service/dto"
	"github.com/dietbet/nfl-betting-platform/internal/betting"
	"github.com/dietbet/nfl-betting-platform/internal/eventstore"
	"github.com/dietbet/nfl-betting-platform/internal/identity"
	"github.com/dietbet/nfl-betting-platform/internal/ledger"
	"github.com/dietbet/nfl-betting-platform/internal/storage"
	"github.com/dietbet/nfl-betting-platform/internal/wagers"
)

const cutoff = 5 * time.Minute

func newTestAPI(t *testing.T) (*API, *eventstore.Memory) {
	t.Helper()
	led := ledger.NewMemory(10_000)
	events := eventstore.NewMemory(cutoff)
	svc := betting.NewService(zap.NewNop(), storage.NewMemRunner(), led, events, wagers.NewMemory(), betting.Params{
		Cutoff:           cutoff,
		MinStakeCents:    100,
		PayoutMultiplier: 2.0,
		WagersPerPage:    20,
	})
	return &API{Log: zap.NewNop(), Betting: svc, Cutoff: cutoff}, events
}

func seedEvent(events *eventstore.Memory) string {
	return events.Seed(eventstore.Event{
		FeedEventID: "nfl-001",
		HomeTeam:    "Chiefs",
		AwayTeam:    "Bills",
		StartTime:   time.Now().Add(time.Hour),
		Status:      eventstore.StatusScheduled,
	})
}

func doJSON(t *testing.T, handler http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set(identity.Header, userID)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestListEventsPublic(t *testing.T) {
	api, events := newTestAPI(t)
	seedEvent(events)
	router := api.Router()

	rec := doJSON(t, router, http.MethodGet, "/v1/events", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out []dto.EventResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	require.Len(t, out, 1)
	require.Equal(t, "Chiefs", out[0].HomeTeam)
	require.Equal(t, out[0].StartTime.Add(-cutoff), out[0].LockTime)
}

func TestPlaceWagerRequiresIdentity(t *testing.T) {
	api, events := newTestAPI(t)
	eventID := seedEvent(events)
	router := api.Router()

	rec := doJSON(t, router, http.MethodPost, "/v1/bets", "", dto.PlaceWagerRequest{
		EventID: eventID, Pick: "Chiefs", StakeCents: 1_000,
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPlaceWagerHappyPath(t *testing.T) {
	api, events := newTestAPI(t)
	eventID := seedEvent(events)
	router := api.Router()

	// primeiro contato cria a carteira
	rec := doJSON(t, router, http.MethodGet, "/v1/wallet", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/v1/bets", "alice", dto.PlaceWagerRequest{
		EventID: eventID, Pick: "Chiefs", StakeCents: 4_000,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var w dto.WagerResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&w))
	require.Equal(t, "PENDING", w.Status)
	require.Equal(t, int64(8_000), w.PotentialPayoutCents)

	rec = doJSON(t, router, http.MethodGet, "/v1/wallet", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var wallet dto.WalletResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&wallet))
	require.Equal(t, int64(6_000), wallet.BalanceCents)
}

func TestPlaceWagerErrorMapping(t *testing.T) {
	api, events := newTestAPI(t)
	eventID := seedEvent(events)
	router := api.Router()

	doJSON(t, router, http.MethodGet, "/v1/wallet", "alice", nil)

	cases := []struct {
		name string
		req  dto.PlaceWagerRequest
		code int
	}{
		{"unknown event", dto.PlaceWagerRequest{EventID: "missing", Pick: "Chiefs", StakeCents: 1_000}, http.StatusNotFound},
		{"invalid stake", dto.PlaceWagerRequest{EventID: eventID, Pick: "Chiefs", StakeCents: 50}, http.StatusBadRequest},
		{"invalid selection", dto.PlaceWagerRequest{EventID: eventID, Pick: "Raiders", StakeCents: 1_000}, http.StatusBadRequest},
		{"insufficient funds", dto.PlaceWagerRequest{EventID: eventID, Pick: "Chiefs", StakeCents: 50_000}, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/v1/bets", "alice", tc.req)
			require.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestCancelWagerFlow(t *testing.T) {
	api, events := newTestAPI(t)
	eventID := seedEvent(events)
	router := api.Router()

	doJSON(t, router, http.MethodGet, "/v1/wallet", "alice", nil)

	rec := doJSON(t, router, http.MethodPost, "/v1/bets", "alice", dto.PlaceWagerRequest{
		EventID: eventID, Pick: "Chiefs", StakeCents: 4_000,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var w dto.WagerResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&w))

	rec = doJSON(t, router, http.MethodPost, "/v1/bets/"+w.ID+"/cancel", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// segundo cancel é conflito, não refund duplicado
	rec = doJSON(t, router, http.MethodPost, "/v1/bets/"+w.ID+"/cancel", "alice", nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	// aposta de outro usuário não é encontrada
	rec = doJSON(t, router, http.MethodPost, "/v1/bets/"+w.ID+"/cancel", "mallory", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListWagersValidation(t *testing.T) {
	api, _ := newTestAPI(t)
	router := api.Router()

	rec := doJSON(t, router, http.MethodGet, "/v1/bets?status=BOGUS", "alice", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/v1/bets?page=0", "alice", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/v1/bets?status=PENDING&page=1", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestScheduleByWeek(t *testing.T) {
	api, events := newTestAPI(t)
	events.Seed(eventstore.Event{
		FeedEventID: "nfl-001",
		HomeTeam:    "Chiefs",
		AwayTeam:    "Bills",
		StartTime:   time.Now().Add(-3 * time.Hour),
		Status:      eventstore.StatusFinal,
		HomeScore:   27,
		AwayScore:   20,
		Winner:      "Chiefs",
		Week:        1,
		Season:      2026,
	})
	router := api.Router()

	rec := doJSON(t, router, http.MethodGet, "/v1/schedule?season=2026&week=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out []dto.EventResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	require.Len(t, out, 1)
	require.Equal(t, "FINAL", out[0].Status)
	require.Equal(t, "Chiefs", out[0].Winner)

	rec = doJSON(t, router, http.MethodGet, "/v1/schedule?season=2026", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLiveScoreColdCacheIs404(t *testing.T) {
	api, events := newTestAPI(t)
	eventID := seedEvent(events)
	router := api.Router()

	rec := doJSON(t, router, http.MethodGet, "/v1/events/"+eventID+"/live", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWalletEntriesAfterActivity(t *testing.T) {
	api, events := newTestAPI(t)
	eventID := seedEvent(events)
	router := api.Router()

	doJSON(t, router, http.MethodGet, "/v1/wallet", "alice", nil)
	doJSON(t, router, http.MethodPost, "/v1/bets", "alice", dto.PlaceWagerRequest{
		EventID: eventID, Pick: "Chiefs", StakeCents: 1_000,
	})

	rec := doJSON(t, router, http.MethodGet, "/v1/wallet/entries", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []dto.LedgerEntryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
	require.Len(t, entries, 2)
	// mais recente primeiro: o débito da aposta
	require.Equal(t, int64(-1_000), entries[0].AmountCents)
}
