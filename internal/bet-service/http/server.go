package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dietbet/nfl-betting-platform/internal/bet-service/dto"
	"github.com/dietbet/nfl-betting-platform/internal/betting"
	"github.com/dietbet/nfl-betting-platform/internal/identity"
	"github.com/dietbet/nfl-betting-platform/internal/scores"
	"github.com/dietbet/nfl-betting-platform/internal/wagers"
)

// API expõe os endpoints REST de aposta, carteira e eventos.
// Todas as rotas exceto /v1/events exigem o header de identidade.
type API struct {
	Log     *zap.Logger
	Betting *betting.Service
	Scores  *scores.Cache // opcional; nil responde 404 no placar ao vivo
	Cutoff  time.Duration
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/events", a.listEvents)
	r.Get("/v1/events/{id}/live", a.liveScore)
	r.Get("/v1/schedule", a.listSchedule)
	r.Post("/v1/bets", a.placeWager)
	r.Post("/v1/bets/{id}/cancel", a.cancelWager)
	r.Get("/v1/bets", a.listWagers)
	r.Get("/v1/wallet", a.wallet)
	r.Get("/v1/wallet/entries", a.walletEntries)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError traduz a taxonomia de erros do domínio para HTTP.
// Pré-condição violada é 4xx; o resto é infra e vira 500 sem vazar detalhe.
func (a *API) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, betting.ErrUnknownEvent), errors.Is(err, betting.ErrUnknownWager):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, betting.ErrInvalidStake):
		writeError(w, http.StatusBadRequest, "invalid stake")
	case errors.Is(err, betting.ErrInvalidSelection):
		writeError(w, http.StatusBadRequest, "invalid selection")
	case errors.Is(err, betting.ErrBettingClosed):
		writeError(w, http.StatusConflict, "betting closed")
	case errors.Is(err, betting.ErrNotCancellable):
		writeError(w, http.StatusConflict, "wager not cancellable")
	case errors.Is(err, betting.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, "insufficient funds")
	default:
		a.Log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// userID resolve a identidade ou responde 401. ok=false já escreveu a resposta.
func (a *API) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := identity.FromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing user identity")
		return "", false
	}
	return id, true
}

// listEvents retorna os eventos abertos para aposta, com lock avaliado agora
func (a *API) listEvents(w http.ResponseWriter, r *http.Request) {
	evs, err := a.Betting.ListBettable(r.Context())
	if err != nil {
		a.writeDomainError(w, err)
		return
	}

	out := make([]dto.EventResponse, 0, len(evs))
	for _, e := range evs {
		out = append(out, dto.FromEvent(e, a.Cutoff))
	}
	writeJSON(w, http.StatusOK, out)
}

// listSchedule retorna a rodada completa, jogos encerrados incluídos
func (a *API) listSchedule(w http.ResponseWriter, r *http.Request) {
	season, err := strconv.Atoi(r.URL.Query().Get("season"))
	if err != nil || season < 1 {
		writeError(w, http.StatusBadRequest, "invalid season")
		return
	}
	week, err := strconv.Atoi(r.URL.Query().Get("week"))
	if err != nil || week < 1 {
		writeError(w, http.StatusBadRequest, "invalid week")
		return
	}

	evs, err := a.Betting.ListWeek(r.Context(), season, week)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}

	out := make([]dto.EventResponse, 0, len(evs))
	for _, e := range evs {
		out = append(out, dto.FromEvent(e, a.Cutoff))
	}
	writeJSON(w, http.StatusOK, out)
}

// liveScore retorna o placar corrente do cache; cache frio é 404
func (a *API) liveScore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if a.Scores == nil {
		writeError(w, http.StatusNotFound, "no live score")
		return
	}

	snap, ok, err := a.Scores.GetCurrent(r.Context(), id)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no live score")
		return
	}
	writeJSON(w, http.StatusOK, dto.FromSnapshot(snap))
}

func (a *API) placeWager(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}

	var req dto.PlaceWagerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.EventID == "" {
		writeError(w, http.StatusBadRequest, "eventId required")
		return
	}

	wg, err := a.Betting.PlaceWager(r.Context(), userID, req.EventID, req.Pick, req.StakeCents)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.FromWager(*wg))
}

func (a *API) cancelWager(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	wg, err := a.Betting.CancelWager(r.Context(), userID, id)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromWager(*wg))
}

// listWagers pagina o histórico do usuário; ?status= filtra, ?page= começa em 1
func (a *API) listWagers(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}

	var status wagers.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		status = wagers.Status(raw)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid page")
			return
		}
		page = n
	}

	ws, err := a.Betting.GetUserWagers(r.Context(), userID, status, page)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}

	out := dto.WagerListResponse{Wagers: make([]dto.WagerResponse, 0, len(ws)), Page: page}
	for _, wg := range ws {
		out.Wagers = append(out.Wagers, dto.FromWager(wg))
	}
	writeJSON(w, http.StatusOK, out)
}

// wallet retorna o saldo; primeiro contato cria o usuário com saldo inicial
func (a *API) wallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}

	balance, err := a.Betting.Wallet(r.Context(), userID)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.WalletResponse{UserID: userID, BalanceCents: balance})
}

func (a *API) walletEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	entries, err := a.Betting.WalletEntries(r.Context(), userID, limit)
	if err != nil {
		a.writeDomainError(w, err)
		return
	}

	out := make([]dto.LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.FromEntry(e))
	}
	writeJSON(w, http.StatusOK, out)
}
