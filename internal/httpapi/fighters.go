package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"example.com/arena-mvp/internal/arena"
	"example.com/arena-mvp/internal/metrics"
	"github.com/google/uuid"
)

const DefaultMaxBodyBytes = 1 << 20

var errMissingID = errors.New("missing id")

// FighterHandler maps HTTP calls onto a single arena.Registry. Each handler
// makes exactly one registry call; events, logs and metrics are emitted
// afterwards, outside the registry lock.
type FighterHandler struct {
	Registry     *arena.Registry
	Events       arena.EventSink
	Metrics      *metrics.Metrics
	Log          *slog.Logger
	MaxBodyBytes int64
	Now          func() time.Time
}

func (h *FighterHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/register", h.Register)
	mux.HandleFunc("/update", h.Update)
	mux.HandleFunc("/source", h.Source)
	mux.HandleFunc("/win", h.Win)
	mux.HandleFunc("/lose", h.Lose)
	mux.HandleFunc("/create", h.Matchmake)
	mux.HandleFunc("/stats", h.Stats)
	mux.HandleFunc("/rankings", h.Rankings)
}

// Register: POST /register, body is the script, response is the new id.
func (h *FighterHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	src, ok := h.readSource(w, r)
	if !ok {
		return
	}

	id := h.Registry.Register(arena.NewFighter(src))
	h.Metrics.Op("register", "ok")
	h.publish(r.Context(), arena.Event{Type: arena.EventRegistered, FighterID: id.String()})

	writeText(w, http.StatusCreated, id.String())
}

// Update: POST /update?id=<uuid>. Without an id, or with an id the registry
// does not know, the script is registered under a new identifier.
func (h *FighterHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	id, err := parseID(r)
	if err != nil && !errors.Is(err, errMissingID) {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	src, ok := h.readSource(w, r)
	if !ok {
		return
	}

	var got uuid.UUID
	if errors.Is(err, errMissingID) {
		got = h.Registry.Register(arena.NewFighter(src))
	} else {
		got = h.Registry.Update(arena.NewFighter(src), id)
	}

	evType := arena.EventRegistered
	if got == id {
		evType = arena.EventUpdated
	}
	h.Metrics.Op("update", string(evType))
	h.publish(r.Context(), arena.Event{Type: evType, FighterID: got.String()})

	writeText(w, http.StatusOK, got.String())
}

// Source: GET /source?id=<uuid>.
func (h *FighterHandler) Source(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	id, ok := h.requireID(w, r)
	if !ok {
		return
	}

	src, found := h.Registry.Source(id)
	if !found {
		h.Metrics.Op("source", "not_found")
		writeError(w, http.StatusNotFound, "not_found", "fighter not found")
		return
	}
	h.Metrics.Op("source", "ok")
	writeText(w, http.StatusOK, src)
}

// Win: GET|POST /win?id=<uuid>. Unknown fighters are silently ignored.
func (h *FighterHandler) Win(w http.ResponseWriter, r *http.Request) {
	h.recordOutcome(w, r, arena.EventWin, h.Registry.RecordWin)
}

// Lose: GET|POST /lose?id=<uuid>.
func (h *FighterHandler) Lose(w http.ResponseWriter, r *http.Request) {
	h.recordOutcome(w, r, arena.EventLoss, h.Registry.RecordLoss)
}

func (h *FighterHandler) recordOutcome(w http.ResponseWriter, r *http.Request, evType arena.EventType, record func(uuid.UUID) (arena.Fighter, bool)) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
		return
	}

	id, ok := h.requireID(w, r)
	if !ok {
		return
	}

	f, found := record(id)
	if !found {
		h.Metrics.Op(string(evType), "not_found")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.Metrics.Op(string(evType), "ok")
	h.publish(r.Context(), arena.Event{
		Type:      evType,
		FighterID: f.ID.String(),
		Wins:      f.Wins,
		Losses:    f.Losses,
	})
	w.WriteHeader(http.StatusNoContent)
}

// Matchmake: GET /create?id=<uuid> returns {"creator": ..., "others": [...]}.
func (h *FighterHandler) Matchmake(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	id, ok := h.requireID(w, r)
	if !ok {
		return
	}

	fighters, err := h.Registry.Matchmake(id)
	if errors.Is(err, arena.ErrFighterNotFound) {
		h.Metrics.Op("matchmake", "not_found")
		writeError(w, http.StatusNotFound, "not_found", "fighter not found")
		return
	}
	if err != nil {
		h.Metrics.Op("matchmake", "error")
		h.logger().Error("matchmake failed", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "matchmake failed")
		return
	}

	h.Metrics.Op("matchmake", "ok")
	h.Metrics.Opponents(len(fighters) - 1)
	h.publish(r.Context(), arena.Event{
		Type:      arena.EventMatch,
		FighterID: id.String(),
		Wins:      fighters[0].Wins,
		Losses:    fighters[0].Losses,
		Opponents: arena.OpponentIDs(fighters),
	})

	writeJSON(w, http.StatusOK, arena.NewMatch(fighters))
}

type statsResponse struct {
	ID     string `json:"id"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
	Score  int    `json:"score"`
}

// Stats: GET /stats?id=<uuid>.
func (h *FighterHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	id, ok := h.requireID(w, r)
	if !ok {
		return
	}

	f, found := h.Registry.Stats(id)
	if !found {
		h.Metrics.Op("stats", "not_found")
		writeError(w, http.StatusNotFound, "not_found", "fighter not found")
		return
	}
	h.Metrics.Op("stats", "ok")
	writeJSON(w, http.StatusOK, statsResponse{
		ID:     f.ID.String(),
		Wins:   f.Wins,
		Losses: f.Losses,
		Score:  f.Score(),
	})
}

// Rankings: GET /rankings?limit=n.
func (h *FighterHandler) Rankings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "bad_request", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	h.Metrics.Op("rankings", "ok")
	writeJSON(w, http.StatusOK, h.Registry.Rankings(limit))
}

func parseID(r *http.Request) (uuid.UUID, error) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		return uuid.Nil, errMissingID
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func (h *FighterHandler) requireID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return uuid.Nil, false
	}
	return id, true
}

func (h *FighterHandler) readSource(w http.ResponseWriter, r *http.Request) (string, bool) {
	limit := h.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}

	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", fmt.Sprintf("script exceeds %d bytes", limit))
			return "", false
		}
		writeError(w, http.StatusBadRequest, "bad_request", "failed to read body")
		return "", false
	}
	return string(b), true
}

func (h *FighterHandler) publish(ctx context.Context, ev arena.Event) {
	if h.Events == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = h.now()
	}
	if err := h.Events.Publish(ctx, ev); err != nil {
		h.logger().Warn("publish event failed", "type", ev.Type, "fighter", ev.FighterID, "err", err)
	}
}

func (h *FighterHandler) logger() *slog.Logger {
	if h.Log == nil {
		return slog.Default()
	}
	return h.Log
}

func (h *FighterHandler) now() time.Time {
	if h.Now == nil {
		return time.Now().UTC()
	}
	return h.Now()
}
