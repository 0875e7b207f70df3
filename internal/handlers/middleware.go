package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"tinygames/internal/logging"
)

const maxBody = 1 << 16

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ReadJSON decodes a bounded request body into v.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)
	return json.NewDecoder(r.Body).Decode(v)
}

func encode(v any) ([]byte, error) { return json.Marshal(v) }

// allow rejects requests whose method is not m.
func allow(w http.ResponseWriter, r *http.Request, m string) bool {
	if r.Method == m {
		return true
	}
	w.Header().Set("Allow", m)
	WriteJSON(w, http.StatusMethodNotAllowed, map[string]any{"ok": false, "error": "method not allowed"})
	return false
}

// LogRequests traces every request when debug logging is on.
func LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.Debugf("%s %s from %s in %s", r.Method, r.URL.Path, ClientIP(r), time.Since(start))
	})
}
