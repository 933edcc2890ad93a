package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mirokatsu/osu-streak-tracker/services"
)

type ManageHandler struct {
	trackerService *services.TrackerService
}

func NewManageHandler(trackerService *services.TrackerService) *ManageHandler {
	return &ManageHandler{trackerService: trackerService}
}

type addTrackedPlayersInput struct {
	Players []string `json:"players"`
}

// AddTrackedPlayers enqueues player names for the drain worker. The response
// means "accepted", not "completed": lookups happen asynchronously.
func (h *ManageHandler) AddTrackedPlayers(w http.ResponseWriter, r *http.Request) {
	var input addTrackedPlayersInput

	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	names := make([]string, 0, len(input.Players))
	for _, name := range input.Players {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	if len(names) == 0 {
		badRequestResponse(w, r, errors.New("at least one player name is required"))
		return
	}

	queued := h.trackerService.QueueAdd(names)

	response := jsonResponse{
		"success": true,
		"queued":  queued,
		"message": fmt.Sprintf("%d players queued for tracking.", queued),
	}
	if err := writeJSON(w, http.StatusAccepted, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type removeTrackedPlayersInput struct {
	IDs []int `json:"ids"`
}

// RemoveTrackedPlayers untracks players synchronously and reports the
// outcome per id, distinguishing a fully applied request from a partial one.
func (h *ManageHandler) RemoveTrackedPlayers(w http.ResponseWriter, r *http.Request) {
	var input removeTrackedPlayersInput

	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if len(input.IDs) == 0 {
		badRequestResponse(w, r, errors.New("at least one player id is required"))
		return
	}

	results := h.trackerService.Remove(r.Context(), input.IDs)

	failures := 0
	for _, res := range results {
		if !res.Removed {
			failures++
		}
	}

	response := jsonResponse{
		"success": failures == 0,
		"partial": failures > 0 && failures < len(results),
		"results": results,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ManageHandler) QueueStatus(w http.ResponseWriter, r *http.Request) {
	if err := writeJSON(w, http.StatusOK, h.trackerService.Status(), nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
