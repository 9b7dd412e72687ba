package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Handler serves the HTTP surface of the gateway: the websocket upgrade and
// the initial-state fetch a client performs before attaching its socket.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler for the gateway.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleConnection upgrades a client to a websocket.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Manager().UpgradeConnection(w, r); err != nil {
		log.Error().Err(err).Msg("failed to upgrade websocket connection")
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
	}
}

// HandleState returns the current repaired snapshot with derived display
// values. 503 until the first store observation lands.
func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	state, ok := h.service.State()
	if !ok {
		http.Error(w, "match state not loaded yet", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(state); err != nil {
		log.Error().Err(err).Msg("failed to encode state response")
	}
}

// RegisterRoutes registers the gateway routes with an HTTP mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/match", h.HandleConnection)
	mux.HandleFunc("/api/match/state", h.HandleState)
}
