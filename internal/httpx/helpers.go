// Package httpx contains JSON helpers shared by the HTTP handlers.
package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/doantruong120699/voice-cloner-backend/internal/serr"
)

// ErrorEnvelope is the body of every non-2xx JSON response.
type ErrorEnvelope struct {
	Error  string  `json:"error"`
	Detail *string `json:"detail"`
}

func ReadJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(out)
}

func WriteJSON(w http.ResponseWriter, status int, resp any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	return enc.Encode(resp)
}

// WriteError renders the error envelope for the given status and messages.
// detail may be empty, in which case the field is null.
func WriteError(w http.ResponseWriter, status int, msg, detail string) {
	env := ErrorEnvelope{Error: msg}
	if detail != "" {
		env.Detail = &detail
	}
	_ = WriteJSON(w, status, env)
}

// HandleErr logs the full error chain and writes the envelope. Only
// serr.ServiceError messages reach the caller; everything else becomes a
// generic 500.
func HandleErr(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("request error",
		"error", err,
		"method", r.Method,
		"url", r.URL.String(),
		"remote_addr", r.RemoteAddr,
	)

	var se *serr.ServiceError
	if errors.As(err, &se) {
		WriteError(w, se.StatusCode, se.Msg, se.Detail)
		return
	}

	WriteError(w, http.StatusInternalServerError, "internal server error", "")
}
