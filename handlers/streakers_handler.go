package handlers

import (
	"net/http"

	"github.com/mirokatsu/osu-streak-tracker/services"
)

type StreakersHandler struct {
	streakerService *services.StreakerService
}

func NewStreakersHandler(streakerService *services.StreakerService) *StreakersHandler {
	return &StreakersHandler{streakerService: streakerService}
}

// ListDailyStreakers serves the joined presentation view as a JSON array.
// The frontend relies on the bare-array shape.
func (h *StreakersHandler) ListDailyStreakers(w http.ResponseWriter, r *http.Request) {
	sortKey := r.URL.Query().Get("sort")
	if sortKey == "" {
		sortKey = services.SortByName
	}

	rows, err := h.streakerService.ListDailyStreakers(r.Context(), sortKey)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, rows, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
