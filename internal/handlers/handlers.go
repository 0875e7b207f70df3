package handlers

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"tinygames/internal/game"
	"tinygames/internal/logging"
	"tinygames/internal/storage"
)

const heartbeat = 15 * time.Second

// Version is the build identity served on /version.
type Version struct {
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	Hub     *game.Hub
	Store   *storage.Store // optional session history
	Version Version
}

// NewHandler creates a new handler instance
func NewHandler(hub *game.Hub) *Handler {
	return &Handler{Hub: hub}
}

// Routes registers every endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/games", h.HandleGames)
	mux.HandleFunc("/sessions", h.HandleStart)
	mux.HandleFunc("/sessions/", h.HandleSession)
	mux.HandleFunc("/input/", h.HandleInput)
	mux.HandleFunc("/abandon/", h.HandleAbandon)
	mux.HandleFunc("/sse/", h.HandleSSE)
	mux.HandleFunc("/stats", h.HandleStats)
	mux.HandleFunc("/version", h.HandleVersion)
}

// HandleGames returns the catalog with the player's budget and standing.
func (h *Handler) HandleGames(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	o, err := h.Hub.Overview(r.Context(), Player(r, r.URL.Query().Get("clientId")))
	if err != nil {
		h.fail(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, o)
}

type startRequest struct {
	Game             game.GameID `json:"game"`
	ClientID         string      `json:"clientId"`
	TimeLimitSeconds int         `json:"timeLimitSeconds"`
	Difficulty       string      `json:"difficulty"`
	FEN              string      `json:"fen"`
}

// HandleStart opens a session if the player's daily budget allows it.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	var body startRequest
	if err := ReadJSON(w, r, &body); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad json"})
		return
	}
	player := Player(r, body.ClientID)
	snap, err := h.Hub.Start(r.Context(), player, body.Game, game.Config{
		TimeLimitSeconds: body.TimeLimitSeconds,
		Difficulty:       body.Difficulty,
		FEN:              body.FEN,
	})
	switch {
	case errors.Is(err, game.ErrBudgetExceeded):
		WriteJSON(w, http.StatusOK, map[string]any{"ok": false, "error": err.Error()})
		return
	case errors.Is(err, game.ErrUnknownGame):
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
		return
	case err != nil && body.FEN != "":
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
		return
	case err != nil:
		h.fail(w, err)
		return
	}
	logging.Debugf("started %s for %q", snap.ID, player)
	WriteJSON(w, http.StatusCreated, map[string]any{"ok": true, "session": snap})
}

// HandleSession returns the current snapshot of a session.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	snap, err := h.Hub.Snapshot(strings.TrimPrefix(r.URL.Path, "/sessions/"))
	if err != nil {
		h.fail(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, snap)
}

// HandleInput applies one input event. Rejected moves are reported with ok false.
func (h *Handler) HandleInput(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/input/")
	var in game.Input
	if err := ReadJSON(w, r, &in); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "bad json"})
		return
	}
	snap, err := h.Hub.Input(r.Context(), id, in)
	switch {
	case errors.Is(err, game.ErrUnknownSession):
		h.fail(w, err)
	case errors.Is(err, game.ErrInvalidMove), errors.Is(err, game.ErrIncorrectEntry), errors.Is(err, game.ErrTimeExpired):
		logging.Debugf("input %s on %s rejected: %v", in.Kind, id, err)
		WriteJSON(w, http.StatusOK, map[string]any{"ok": false, "error": err.Error(), "session": snap})
	case err != nil:
		h.fail(w, err)
	default:
		WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "session": snap})
	}
}

// HandleAbandon ends a session early. Played time still counts.
func (h *Handler) HandleAbandon(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	snap, err := h.Hub.Abandon(r.Context(), strings.TrimPrefix(r.URL.Path, "/abandon/"))
	if err != nil {
		h.fail(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "session": snap})
}

// HandleSSE handles Server-Sent Events for real-time session updates. The
// stream ends after the terminal snapshot.
func (h *Handler) HandleSSE(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/sse/")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch, unsubscribe, err := h.Hub.Subscribe(id)
	if err != nil {
		h.fail(w, err)
		return
	}
	defer unsubscribe()

	snap, err := h.Hub.Snapshot(id)
	if err != nil {
		h.fail(w, err)
		return
	}
	initial, err := encode(snap)
	if err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	_, _ = fmt.Fprintf(w, "data: %s\n\n", initial)
	flusher.Flush()

	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// heartbeat
			_, _ = w.Write([]byte("data: {}\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				// session ended or was swept
				return
			}
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(msg)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		}
	}
}

type statsResponse struct {
	Player  string                           `json:"player"`
	Stats   map[game.GameID]game.StatsRecord `json:"stats"`
	Budget  game.DailyBudget                 `json:"budget"`
	Summary *storage.Summary                 `json:"summary,omitempty"`
	Recent  []storage.SessionRecord          `json:"recent,omitempty"`
}

// HandleStats returns per-game statistics and today's budget. When session
// history is stored it also returns a summary and the latest sessions.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	ctx := r.Context()
	player := Player(r, r.URL.Query().Get("clientId"))
	stats, err := h.Hub.Stats(ctx, player)
	if err != nil {
		h.fail(w, err)
		return
	}
	budget, err := h.Hub.Budget(ctx, player)
	if err != nil {
		h.fail(w, err)
		return
	}
	resp := statsResponse{Player: player, Stats: stats, Budget: budget}
	if h.Store != nil {
		if err := h.history(ctx, player, &resp); err != nil {
			h.fail(w, err)
			return
		}
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) history(ctx context.Context, player string, resp *statsResponse) error {
	sum, err := h.Store.FetchSummary(ctx, player)
	if err != nil {
		return err
	}
	recent, err := h.Store.RecentSessions(ctx, player, 10)
	if err != nil {
		return err
	}
	resp.Summary = &sum
	resp.Recent = recent
	return nil
}

// HandleVersion reports the build.
func (h *Handler) HandleVersion(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Version)
}

// fail maps hub errors to status codes.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrUnknownSession):
		WriteJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": err.Error()})
	default:
		logging.Logger().Error("request failed", "err", err)
		WriteJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "internal error"})
	}
}

// Player returns the client id, or the caller's address when it is empty.
func Player(r *http.Request, clientID string) string {
	if id := strings.TrimSpace(clientID); id != "" {
		return id
	}
	return ClientIP(r)
}

// ClientIP extracts the client IP from the request
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
