package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/radieske/season-betting/internal/bet-service/domain"
	"github.com/radieske/season-betting/internal/bet-service/dto"
	"github.com/radieske/season-betting/internal/bet-service/placement"
	"github.com/radieske/season-betting/internal/settlement"
)

const adminHeader = "X-Admin-Secret"

type Placer interface {
	PlaceWager(ctx context.Context, req placement.Request) (domain.Wager, error)
}

type Reader interface {
	GetWager(ctx context.Context, id string) (domain.Wager, error)
	ListWagers(ctx context.Context, entryID string, feed domain.WagerFeed) ([]domain.Wager, error)
	GetEntry(ctx context.Context, id string) (domain.Entry, error)
	ListGames(ctx context.Context, status domain.GameStatus) ([]domain.Game, error)
}

type Settler interface {
	RecordGameOutcome(ctx context.Context, gameID string, winner domain.Side) (domain.Game, error)
	RunPass(ctx context.Context) (settlement.PassResult, error)
}

type OddsWriter interface {
	Set(ctx context.Context, gameID string, side domain.Side, odds int) error
}

// API expõe a colocação, as consultas e os endpoints administrativos de liquidação
type API struct {
	Log         *zap.Logger
	Placer      Placer
	Reader      Reader
	Settler     Settler
	Odds        OddsWriter   // opcional; sem ele /odds responde 501
	WS          http.Handler // opcional; feed /ws
	AdminSecret string

	validate *validator.Validate
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	a.validate = validator.New()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/v1/wagers", a.placeWager)
	r.Get("/v1/wagers", a.listWagers)
	r.Get("/v1/wagers/{id}", a.getWager)
	r.Get("/v1/entries/{id}", a.getEntry)
	r.Get("/v1/games", a.listGames)

	r.Route("/v1/admin", func(r chi.Router) {
		r.Use(a.requireAdmin)
		r.Post("/games/{id}/outcome", a.recordOutcome)
		r.Post("/games/{id}/odds", a.setOdds)
		r.Post("/settle", a.settle)
	})

	if a.WS != nil {
		r.Get("/ws", a.WS.ServeHTTP)
	}
	return r
}

// requireAdmin confere o segredo compartilhado; sem segredo configurado o admin fica desligado
func (a *API) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(adminHeader)
		if a.AdminSecret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(a.AdminSecret)) != 1 {
			writeJSON(w, http.StatusForbidden, dto.ErrorResponse{Error: "forbidden"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) placeWager(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceWagerRequest
	if !a.decode(w, r, &req) {
		return
	}

	legs := make([]placement.LegRequest, len(req.Legs))
	for i, l := range req.Legs {
		legs[i] = placement.LegRequest{GameID: l.GameID, Side: domain.Side(l.Side), Odds: l.Odds}
	}
	wager, err := a.Placer.PlaceWager(r.Context(), placement.Request{
		EntryID:    req.EntryID,
		StakeCents: req.StakeCents,
		Legs:       legs,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.FromWager(wager))
}

func (a *API) getWager(w http.ResponseWriter, r *http.Request) {
	wager, err := a.Reader.GetWager(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromWager(wager))
}

// listWagers é o feed de apostas: ?entry_id= filtra a entry, ?status=open|settled.
// Mais recentes primeiro.
func (a *API) listWagers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	wagers, err := a.Reader.ListWagers(r.Context(), q.Get("entry_id"), domain.WagerFeed(q.Get("status")))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := dto.WagerListResponse{Wagers: make([]dto.WagerResponse, len(wagers))}
	for i, wg := range wagers {
		out.Wagers[i] = dto.FromWager(wg)
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) getEntry(w http.ResponseWriter, r *http.Request) {
	e, err := a.Reader.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromEntry(e))
}

// listGames aceita ?status=scheduled|final; sem filtro lista todas
func (a *API) listGames(w http.ResponseWriter, r *http.Request) {
	status := domain.GameStatus(r.URL.Query().Get("status"))
	if status != "" && status != domain.GameScheduled && status != domain.GameFinal {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: "status must be scheduled or final"})
		return
	}
	games, err := a.Reader.ListGames(r.Context(), status)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	out := make([]dto.GameResponse, len(games))
	for i, g := range games {
		out[i] = dto.FromGame(g)
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) recordOutcome(w http.ResponseWriter, r *http.Request) {
	var req dto.GameOutcomeRequest
	if !a.decode(w, r, &req) {
		return
	}
	g, err := a.Settler.RecordGameOutcome(r.Context(), chi.URLParam(r, "id"), domain.Side(req.Winner))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.FromGame(g))
}

func (a *API) setOdds(w http.ResponseWriter, r *http.Request) {
	if a.Odds == nil {
		writeJSON(w, http.StatusNotImplemented, dto.ErrorResponse{Error: "odds_cache_disabled"})
		return
	}
	var req dto.GameOddsRequest
	if !a.decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	for side, odds := range map[domain.Side]int{domain.SideHome: req.HomeOdds, domain.SideAway: req.AwayOdds} {
		if err := a.Odds.Set(r.Context(), id, side, odds); err != nil {
			a.writeError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) settle(w http.ResponseWriter, r *http.Request) {
	res, err := a.Settler.RunPass(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.SettleResponse{
		Resolved:  res.Resolved,
		Won:       res.Won,
		Lost:      res.Lost,
		Pending:   res.Pending,
		Contended: res.Contended,
		Failed:    res.Failed,
	})
}

// decode lê o JSON e roda as tags de validação; em erro já responde 400
func (a *API) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: "bad json"})
		return false
	}
	if err := a.validate.Struct(v); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return false
	}
	return true
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := domain.Code(err)
	if status == http.StatusInternalServerError {
		a.Log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, status, dto.ErrorResponse{Error: code})
		return
	}
	writeJSON(w, status, dto.ErrorResponse{Error: code, Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidStake),
		errors.Is(err, domain.ErrNoLegs),
		errors.Is(err, domain.ErrInvalidSide),
		errors.Is(err, domain.ErrInvalidOdds),
		errors.Is(err, domain.ErrDuplicateLeg),
		errors.Is(err, domain.ErrInvalidFeed):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEntryNotFound),
		errors.Is(err, domain.ErrGameNotFound),
		errors.Is(err, domain.ErrWagerNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEntryNotPaid):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrGameUnavailable),
		errors.Is(err, domain.ErrGameStarted),
		errors.Is(err, domain.ErrOddsChanged),
		errors.Is(err, domain.ErrGameAlreadyFinal):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
