package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/olrank/pkg/logger"
)

// ClubHandler handles club requests.
type ClubHandler struct {
	deps     Dependencies
	maxLimit int
	log      logger.Logger
}

// NewClubHandler creates a new club handler.
func NewClubHandler(deps Dependencies, maxLimit int, log logger.Logger) *ClubHandler {
	return &ClubHandler{deps: deps, maxLimit: maxLimit, log: log}
}

// HandleGetClub handles GET /clubs/{name}.
func (h *ClubHandler) HandleGetClub(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.PathValue("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	club, err := h.deps.Club(r.Context(), name)
	writeLookup(w, r, h.log, club, err)
}

// HandleListClubs handles GET /clubs?limit=N, ordered by average best points.
func (h *ClubHandler) HandleListClubs(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: limit must be a positive integer", ErrBadRequest))
		return
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", fmt.Errorf("%w: limit above %d", ErrBadRequest, h.maxLimit))
		return
	}
	clubs, err := h.deps.TopClubs(r.Context(), n)
	if err != nil {
		writeLookup(w, r, h.log, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, clubs)
}
