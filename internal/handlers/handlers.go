package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/danijoha94/vintertour/internal/models"
	"github.com/danijoha94/vintertour/internal/scorecard"
)

// genericFailure is what the user sees when storage fails.
const genericFailure = "Noe gikk galt. Prøv igjen."

// MatchStore is the persistence the handlers need.
type MatchStore interface {
	List(ctx context.Context) ([]models.Match, error)
	Get(ctx context.Context, id int) (models.Match, bool, error)
	Create(ctx context.Context, m models.Match) (models.Match, error)
	Modify(ctx context.Context, id int, fn func(models.Match) (models.MatchPatch, error)) (models.Match, bool, error)
	Delete(ctx context.Context, id int) (bool, error)
}

type Handler struct {
	store     MatchStore
	logger    *zap.Logger
	recipient string
	now       func() time.Time
}

// New returns handlers over store. recipient is the mail address used by
// the send action.
func New(store MatchStore, logger *zap.Logger, recipient string) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger, recipient: recipient, now: time.Now}
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/matches", h.MatchesHandler)                 // GET, POST, DELETE
	mux.HandleFunc("/api/matches/get", h.GetMatchHandler)            // GET
	mux.HandleFunc("/api/matches/edit", h.EditFormHandler)           // GET
	mux.HandleFunc("/api/matches/update", h.UpdateMatchHandler)      // POST
	mux.HandleFunc("/api/matches/assign", h.AssignPlayerHandler)     // POST
	mux.HandleFunc("/api/matches/unassign", h.UnassignPlayerHandler) // POST
	mux.HandleFunc("/api/matches/score", h.ScoreHandler)             // POST
	mux.HandleFunc("/api/matches/send", h.SendHandler)               // GET
}

// MatchDetail is the detail screen payload.
type MatchDetail struct {
	Match    models.Match            `json:"match"`
	Counts   []scorecard.PlayerCount `json:"counts"`
	Complete bool                    `json:"complete"`
}

func detail(m models.Match) MatchDetail {
	return MatchDetail{Match: m, Counts: scorecard.Counts(m), Complete: scorecard.Complete(m)}
}

func (h *Handler) MatchesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		matches, err := h.store.List(r.Context())
		if err != nil {
			h.fail(w, r, "Failed to load matches", err)
			return
		}
		writeJSON(w, http.StatusOK, scorecard.Summaries(matches))

	case http.MethodPost:
		var form scorecard.MatchForm
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		m, err := scorecard.NewMatch(form, h.now())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		created, err := h.store.Create(r.Context(), m)
		if err != nil {
			h.fail(w, r, "Failed to create match", err)
			return
		}
		writeJSON(w, http.StatusCreated, created)

	case http.MethodDelete:
		var req struct {
			ID int `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		removed, err := h.store.Delete(r.Context(), req.ID)
		if err != nil {
			h.fail(w, r, "Failed to delete match", err)
			return
		}
		if !removed {
			http.Error(w, "Match not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) GetMatchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	m, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, detail(m))
}

// EditFormHandler returns the edit form prefilled from the stored match,
// with the title's date suffix split off.
func (h *Handler) EditFormHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	m, ok := h.load(w, r)
	if !ok {
		return
	}
	_, date := scorecard.SplitTitle(m.Title)
	writeJSON(w, http.StatusOK, struct {
		ID   int                 `json:"id"`
		Form scorecard.MatchForm `json:"form"`
		Date string              `json:"date"`
	}{ID: m.ID, Form: scorecard.EditForm(m), Date: date})
}

func (h *Handler) UpdateMatchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		ID int `json:"id"`
		scorecard.MatchForm
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.modify(w, r, req.ID, func(m models.Match) (models.MatchPatch, error) {
		return scorecard.EditPatch(m, req.MatchForm)
	})
}

func (h *Handler) AssignPlayerHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		MatchID  int         `json:"match_id"`
		Hole     int         `json:"hole"`
		Team     models.Side `json:"team"`
		PlayerID int         `json:"player_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.modify(w, r, req.MatchID, func(m models.Match) (models.MatchPatch, error) {
		holes, err := scorecard.Assign(m, req.Hole, req.Team, req.PlayerID)
		return models.MatchPatch{Holes: holes}, err
	})
}

func (h *Handler) UnassignPlayerHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		MatchID int         `json:"match_id"`
		Hole    int         `json:"hole"`
		Team    models.Side `json:"team"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.modify(w, r, req.MatchID, func(m models.Match) (models.MatchPatch, error) {
		holes, err := scorecard.Unassign(m, req.Hole, req.Team)
		return models.MatchPatch{Holes: holes}, err
	})
}

func (h *Handler) ScoreHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		MatchID int         `json:"match_id"`
		Team    models.Side `json:"team"`
		Score   int         `json:"score"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.modify(w, r, req.MatchID, func(m models.Match) (models.MatchPatch, error) {
		team1, team2, err := scorecard.SetScore(m, req.Team, req.Score)
		return models.MatchPatch{Team1: &team1, Team2: &team2}, err
	})
}

func (h *Handler) SendHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	m, ok := h.load(w, r)
	if !ok {
		return
	}

	link, err := scorecard.MailtoLink(m, h.recipient)
	if errors.Is(err, scorecard.ErrIncomplete) {
		http.Error(w, scorecard.IncompleteMessage, http.StatusBadRequest)
		return
	}
	if err != nil {
		h.fail(w, r, "Failed to build summary", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"subject": scorecard.Subject(m),
		"body":    scorecard.Body(m),
		"mailto":  link,
	})
}

// load reads the match named by the id query parameter, writing the error
// response itself when it returns false.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (models.Match, bool) {
	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return models.Match{}, false
	}
	m, ok, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "Failed to load match", err)
		return models.Match{}, false
	}
	if !ok {
		http.Error(w, "Match not found", http.StatusNotFound)
		return models.Match{}, false
	}
	return m, true
}

// modify applies the patch built by edit to the stored match under the
// store lock. Errors from edit are the caller's fault and answered with 400.
func (h *Handler) modify(w http.ResponseWriter, r *http.Request, id int, edit func(models.Match) (models.MatchPatch, error)) {
	var invalid error
	updated, ok, err := h.store.Modify(r.Context(), id, func(m models.Match) (models.MatchPatch, error) {
		patch, err := edit(m)
		invalid = err
		return patch, err
	})
	if invalid != nil {
		http.Error(w, invalid.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.fail(w, r, "Failed to update match", err)
		return
	}
	if !ok {
		http.Error(w, "Match not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, detail(updated))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.Error(msg,
		zap.String("request_id", RequestID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	http.Error(w, genericFailure, http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
