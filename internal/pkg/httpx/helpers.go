package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alxvallejo/promptd/internal/pkg/serr"
)

const maxJSONBody = 1 << 20

func ReadJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxJSONBody))
	return dec.Decode(out)
}

func WriteJSON(w http.ResponseWriter, status int, resp any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	return enc.Encode(resp)
}

// HandleErr answers with the status carried by a ServiceError, or 500 for
// anything else. Client errors are logged at warn level.
func HandleErr(w http.ResponseWriter, r *http.Request, err error) {
	var se *serr.ServiceError
	if errors.As(err, &se) {
		level := slog.LevelWarn
		if se.StatusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(r.Context(), level, "request error",
			"error", err,
			"cause", se.Err,
			"env", se.Env,
			"method", r.Method,
			"url", r.URL.String(),
			"remote_addr", r.RemoteAddr,
		)
		http.Error(w, se.Msg, se.StatusCode)
		return
	}

	slog.Error("request error",
		"error", err,
		"method", r.Method,
		"url", r.URL.String(),
		"remote_addr", r.RemoteAddr,
	)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
