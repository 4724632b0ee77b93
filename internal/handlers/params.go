package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/fintrack/internal/handlers/render"
	"github.com/nkiryanov/fintrack/internal/handlers/userctx"
	"github.com/nkiryanov/fintrack/internal/models"
)

// requestUser extracts the authenticated user placed by the auth middleware
// Renders 500 if it is missing: routing without the middleware is a programming error
func requestUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := userctx.FromContext(r.Context())
	if !ok {
		render.Error(w, "Internal server error", http.StatusInternalServerError)
	}
	return user, ok
}

// pathID parses the {id} path segment, renders 400 on malformed value
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		render.Error(w, "Invalid id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// queryInt returns def when the parameter is absent or not a number
func queryInt(r *http.Request, name string, def int) int {
	value, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	return value
}

// queryDate accepts RFC3339 or plain dates, zero time when absent or malformed
func queryDate(r *http.Request, name string) time.Time {
	raw := r.URL.Query().Get(name)
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if dt, err := time.Parse(layout, raw); err == nil {
			return dt
		}
	}
	return time.Time{}
}
