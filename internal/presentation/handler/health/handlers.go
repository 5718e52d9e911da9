package health

import (
	"net/http"
	"time"

	"github.com/Vatanesh/sbg-skribbl/internal/infrastructure/json"
)

var startTime = time.Now()

// DegradedFunc reports whether the shared store has been abandoned for the
// in-process fallback. Nil means no shared store is configured.
type DegradedFunc func() bool

type Handler struct {
	degraded DegradedFunc
}

func NewHandler(degraded DegradedFunc) *Handler {
	return &Handler{degraded: degraded}
}

func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	store := "memory"
	if h.degraded != nil {
		store = "redis"
		if h.degraded() {
			store = "memory (degraded)"
		}
	}

	json.Write(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Store:     store,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(startTime).Round(time.Second).String(),
	})
}
