package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinygames/internal/game"
	"tinygames/internal/storage"
)

func TestHandleGamesOverview(t *testing.T) {
	_, mux := newTestHandler(t)
	code, resp := do(t, mux, "GET", "/games?clientId=amy", ``)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1800, resp["dailyMaxSeconds"])
	assert.EqualValues(t, 1800, resp["remainingSeconds"])
	games := resp["games"].([]any)
	require.Len(t, games, 3)
	first := games[0].(map[string]any)
	assert.Equal(t, "2048", first["id"])
	assert.Equal(t, true, first["canStart"])
	assert.Equal(t, "Beginner", first["skillLevel"])
}

func TestHandleStartRefusedOverBudget(t *testing.T) {
	_, mux := newTestHandler(t, game.WithDailyBudget(600))

	code, resp := do(t, mux, "POST", "/sessions", `{"game":"chess","clientId":"amy"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, resp["ok"])
	assert.Equal(t, "daily budget exceeded", resp["error"])

	code, resp = do(t, mux, "POST", "/sessions", `{"game":"sudoku","clientId":"amy","difficulty":"easy"}`)
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, true, resp["ok"])
}

func TestHandleStartRejectsBadRequests(t *testing.T) {
	_, mux := newTestHandler(t)

	code, resp := do(t, mux, "POST", "/sessions", `{"game":"checkers"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "unknown game", resp["error"])

	code, _ = do(t, mux, "POST", "/sessions", `{"game":"chess","fen":"8/8/8/8/8/8/8/8 w - - 0 1"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, mux, "POST", "/sessions", `nope`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHandleSessionSnapshot(t *testing.T) {
	_, mux := newTestHandler(t)
	id := startChess(t, mux)

	code, resp := do(t, mux, "GET", "/sessions/"+id, ``)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, id, resp["id"])
	assert.Equal(t, "in_progress", resp["state"])
	assert.Equal(t, "c1", resp["player"])

	code, _ = do(t, mux, "GET", "/sessions/unknown", ``)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHandleStatsWithHistory(t *testing.T) {
	db, err := storage.Open(sqlite.Open("file:handlers_stats?mode=memory&cache=shared"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	store := storage.NewStore(db)

	h, mux := newTestHandler(t, game.WithRecorder(store))
	h.Store = store

	_, resp := do(t, mux, "POST", "/sessions", `{"game":"2048","clientId":"amy"}`)
	id := resp["session"].(map[string]any)["id"].(string)
	_, err = h.Hub.Tick(context.Background(), id, 12)
	require.NoError(t, err)
	_, resp = do(t, mux, "POST", "/abandon/"+id, ``)
	require.Equal(t, true, resp["ok"])

	code, resp := do(t, mux, "GET", "/stats?clientId=amy", ``)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "amy", resp["player"])
	assert.Empty(t, resp["stats"])
	assert.EqualValues(t, 12, resp["budget"].(map[string]any)["secondsUsedToday"])

	summary := resp["summary"].(map[string]any)
	assert.EqualValues(t, 1, summary["sessions"])
	assert.EqualValues(t, 1, summary["abandoned"])
	assert.EqualValues(t, 12, summary["secondsPlayed"])
	assert.Len(t, resp["recent"], 1)
}

func TestHandleStatsFallsBackToClientIP(t *testing.T) {
	_, mux := newTestHandler(t)
	req := httptest.NewRequest("GET", "/stats", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	var resp map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "203.0.113.9", resp["player"])
	assert.NotContains(t, resp, "summary")
}

func TestHandleVersion(t *testing.T) {
	h, mux := newTestHandler(t)
	h.Version = Version{Commit: "abc1234", BuildDate: "2025-03-14"}
	_, resp := do(t, mux, "GET", "/version", ``)
	assert.Equal(t, "abc1234", resp["commit"])
	assert.Equal(t, "2025-03-14", resp["buildDate"])
}

func TestHandleSSEStreamsSnapshots(t *testing.T) {
	h, mux := newTestHandler(t)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	id := startChess(t, mux)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/sse/"+id, nil)
	require.NoError(t, err)
	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	events := make(chan map[string]any, 4)
	go func() {
		sc := bufio.NewScanner(res.Body)
		for sc.Scan() {
			line, ok := strings.CutPrefix(sc.Text(), "data: ")
			if !ok {
				continue
			}
			var ev map[string]any
			if json.Unmarshal([]byte(line), &ev) == nil {
				events <- ev
			}
		}
	}()

	next := func() map[string]any {
		select {
		case ev := <-events:
			return ev
		case <-time.After(2 * time.Second):
			t.Fatal("no event")
			return nil
		}
	}

	first := next()
	assert.Equal(t, id, first["id"])
	assert.EqualValues(t, 1, first["watchers"])

	_, err = h.Hub.Input(context.Background(), id, game.Input{Kind: game.InputMove, UCI: "e2e4"})
	require.NoError(t, err)
	second := next()
	assert.Equal(t, "black", second["view"].(map[string]any)["turn"])
}

func TestHandleSSEUnknownSession(t *testing.T) {
	_, mux := newTestHandler(t)
	code, _ := do(t, mux, "GET", "/sse/nope", ``)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestHandleSSEEndsAfterTerminalSnapshot(t *testing.T) {
	h, mux := newTestHandler(t)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	id := startChess(t, mux)

	res, err := srv.Client().Get(srv.URL + "/sse/" + id)
	require.NoError(t, err)
	defer res.Body.Close()

	lines := make(chan string, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		sc := bufio.NewScanner(res.Body)
		for sc.Scan() {
			if line, ok := strings.CutPrefix(sc.Text(), "data: "); ok {
				lines <- line
			}
		}
	}()

	select {
	case <-lines:
	case <-time.After(2 * time.Second):
		t.Fatal("no initial snapshot")
	}
	_, err = h.Hub.Abandon(context.Background(), id)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream stayed open after the session ended")
	}
	require.Len(t, lines, 1)
	var last map[string]any
	require.NoError(t, json.Unmarshal([]byte(<-lines), &last))
	assert.Equal(t, "abandoned", last["state"])
}
