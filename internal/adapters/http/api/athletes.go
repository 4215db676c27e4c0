package api

import (
	"net/http"
	"strings"

	"github.com/okian/olrank/pkg/logger"
)

// AthleteHandler handles athlete detail requests.
type AthleteHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewAthleteHandler creates a new athlete handler.
func NewAthleteHandler(deps Dependencies, log logger.Logger) *AthleteHandler {
	return &AthleteHandler{deps: deps, log: log}
}

// HandleGetAthlete handles GET /athletes/{name}.
func (h *AthleteHandler) HandleGetAthlete(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.PathValue("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	profile, err := h.deps.AthleteProfile(r.Context(), name)
	writeLookup(w, r, h.log, profile, err)
}
