package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirokatsu/osu-streak-tracker/models"
	"github.com/mirokatsu/osu-streak-tracker/services"
)

func newTestManageHandler(repo *fakeRepo) (*ManageHandler, *services.TrackerService) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracker := services.NewTrackerService(&fakeAdder{}, repo, logger)
	return NewManageHandler(tracker), tracker
}

func TestAddTrackedPlayersAccepted(t *testing.T) {
	h, tracker := newTestManageHandler(newFakeRepo())

	req := httptest.NewRequest(http.MethodPost, "/api/manage/add-tracked-players",
		strings.NewReader(`{"players": ["peppy", "  Cookiezi  ", ""]}`))
	rec := httptest.NewRecorder()

	h.AddTrackedPlayers(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var body struct {
		Success bool   `json:"success"`
		Queued  int    `json:"queued"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 2, body.Queued)

	status := tracker.Status()
	assert.Equal(t, []string{"peppy", "Cookiezi"}, status.Queue)
}

func TestAddTrackedPlayersRejectsEmptyInput(t *testing.T) {
	h, _ := newTestManageHandler(newFakeRepo())

	cases := map[string]string{
		"empty array":      `{"players": []}`,
		"whitespace only":  `{"players": ["  ", ""]}`,
		"missing field":    `{}`,
		"malformed json":   `{"players": [`,
		"wrong field type": `{"players": "peppy"}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/manage/add-tracked-players",
				strings.NewReader(payload))
			rec := httptest.NewRecorder()

			h.AddTrackedPlayers(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRemoveTrackedPlayers(t *testing.T) {
	repo := newFakeRepo(
		models.PlayerRecord{ID: 2, Name: "peppy"},
		models.PlayerRecord{ID: 124493, Name: "Cookiezi"},
	)
	h, _ := newTestManageHandler(repo)

	req := httptest.NewRequest(http.MethodDelete, "/api/manage/tracked-players",
		strings.NewReader(`{"ids": [2, 999]}`))
	rec := httptest.NewRecorder()

	h.RemoveTrackedPlayers(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Partial bool `json:"partial"`
		Results []struct {
			ID      int    `json:"osu_id"`
			Removed bool   `json:"removed"`
			Error   string `json:"error"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.False(t, body.Success)
	assert.True(t, body.Partial)
	require.Len(t, body.Results, 2)
	assert.True(t, body.Results[0].Removed)
	assert.False(t, body.Results[1].Removed)
	assert.NotEmpty(t, body.Results[1].Error)

	_, err := repo.GetByID(req.Context(), 2)
	assert.Error(t, err, "removed player should be gone")
	_, err = repo.GetByID(req.Context(), 124493)
	assert.NoError(t, err, "untouched player should remain")
}

func TestRemoveTrackedPlayersRejectsEmptyList(t *testing.T) {
	h, _ := newTestManageHandler(newFakeRepo())

	req := httptest.NewRequest(http.MethodDelete, "/api/manage/tracked-players",
		strings.NewReader(`{"ids": []}`))
	rec := httptest.NewRecorder()

	h.RemoveTrackedPlayers(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueueStatus(t *testing.T) {
	h, tracker := newTestManageHandler(newFakeRepo())
	tracker.QueueAdd([]string{"peppy"})

	req := httptest.NewRequest(http.MethodGet, "/api/manage/queue-status", nil)
	rec := httptest.NewRecorder()

	h.QueueStatus(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var status models.QueueStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, []string{"peppy"}, status.Queue)
	assert.False(t, status.Processing)
}
