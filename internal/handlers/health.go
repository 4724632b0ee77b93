package handlers

import (
	"net/http"
	"time"

	"github.com/nkiryanov/fintrack/internal/handlers/render"
)

// Liveness probe, served outside the authenticated API surface
func handleHealth() http.Handler {
	type response struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, response{Status: "ok", Timestamp: time.Now().UTC()})
	})
}
