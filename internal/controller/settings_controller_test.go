package controller

import (
	"net/http"
	"testing"

	"advisor-command-centre-be/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_DefaultsThenLastWriteWins(t *testing.T) {
	a := newTestApp(t, nil)

	code, body := a.doJSON(t, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, code)
	var got dto.SettingsResponse
	decode(t, body, &got)
	assert.Nil(t, got.Id)
	assert.Equal(t, a.demoID, got.UserId)
	assert.False(t, got.CalendarConnected)
	assert.Equal(t, "selective", got.RecordingRule)
	assert.Equal(t, "", got.Exclusions)

	code, _ = a.doJSON(t, http.MethodPut, "/api/settings", map[string]interface{}{
		"calendarConnected": true, "recordingRule": "always", "exclusions": "internal",
	})
	require.Equal(t, http.StatusOK, code)

	code, body = a.doJSON(t, http.MethodPut, "/api/settings", map[string]interface{}{
		"calendarConnected": false, "recordingRule": "disabled", "exclusions": "",
	})
	require.Equal(t, http.StatusOK, code)
	var saved dto.SettingsResponse
	decode(t, body, &saved)
	require.NotNil(t, saved.Id)

	code, body = a.doJSON(t, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, code)
	decode(t, body, &got)
	assert.Equal(t, saved.Id, got.Id)
	assert.False(t, got.CalendarConnected)
	assert.Equal(t, "disabled", got.RecordingRule)
	assert.Equal(t, "", got.Exclusions)
}

func TestSettings_RejectsInvalidData(t *testing.T) {
	a := newTestApp(t, nil)

	cases := []interface{}{
		map[string]interface{}{"calendarConnected": true, "recordingRule": "sometimes", "exclusions": ""},
		map[string]interface{}{"recordingRule": "always", "exclusions": ""},
		map[string]interface{}{"calendarConnected": "yes", "recordingRule": "always", "exclusions": ""},
	}
	for _, payload := range cases {
		code, body := a.doJSON(t, http.MethodPut, "/api/settings", payload)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.JSONEq(t, `{"error":"Invalid settings data"}`, string(body))
	}
}
