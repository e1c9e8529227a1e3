package rest

import (
	"net/http"

	"github.com/doantruong120699/voice-cloner-backend/internal/httpx"
)

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// HandleHealth reports liveness.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = httpx.WriteJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Service: "voice-clone-api",
	})
}
