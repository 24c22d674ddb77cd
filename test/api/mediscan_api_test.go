package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mediscan/internal/app"
	"github.com/ternarybob/mediscan/internal/common"
	"github.com/ternarybob/mediscan/internal/models"
	"github.com/ternarybob/mediscan/internal/server"
)

// TestMain sets up the test environment
func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}

// setupTestApp creates a test application instance with isolated storage and
// no provider credentials, so every LLM-backed endpoint runs in degraded mode.
func setupTestApp(t *testing.T) (*app.App, func()) {
	// Make sure ambient credentials do not leak into degraded-mode assertions
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("MEDISCAN_GEMINI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("MEDISCAN_CLAUDE_API_KEY", "")

	config := common.DefaultConfig()
	config.Storage.DataDir = t.TempDir()
	config.Storage.Badger.Path = filepath.Join(t.TempDir(), "settings")

	logger := arbor.NewLogger()

	application, err := app.New(config, logger)
	require.NoError(t, err, "Failed to initialize test application")

	cleanup := func() {
		application.Close()
	}

	return application, cleanup
}

func TestAPI_Version(t *testing.T) {
	application, cleanup := setupTestApp(t)
	defer cleanup()

	srv := server.New(application)
	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.NotEmpty(t, response["version"])
}

func TestAPI_Health(t *testing.T) {
	application, cleanup := setupTestApp(t)
	defer cleanup()

	srv := server.New(application)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response["status"])
	assert.Equal(t, false, response["llm_configured"])
}

func TestAPI_QAAsk_Degraded(t *testing.T) {
	application, cleanup := setupTestApp(t)
	defer cleanup()

	srv := server.New(application)
	body, _ := json.Marshal(map[string]string{"question": "What did the last scan show?"})
	req := httptest.NewRequest(http.MethodPost, "/api/qa/ask", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Please configure an API key to enable the QA system.", response["answer"])
	assert.Equal(t, true, response["degraded"])
}

func TestAPI_QAClear(t *testing.T) {
	application, cleanup := setupTestApp(t)
	defer cleanup()

	srv := server.New(application)
	body, _ := json.Marshal(map[string]string{"session_id": "default"})
	req := httptest.NewRequest(http.MethodPost, "/api/qa/clear", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Conversation history cleared.", response["message"])
}

func TestAPI_AnalysesList_Empty(t *testing.T) {
	application, cleanup := setupTestApp(t)
	defer cleanup()

	srv := server.New(application)
	req := httptest.NewRequest(http.MethodGet, "/api/analyses", nil)
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Analyses []models.Report `json:"analyses"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Empty(t, response.Analyses)
}

func TestAPI_StatisticsPDF_NoAnalyses(t *testing.T) {
	application, cleanup := setupTestApp(t)
	defer cleanup()

	srv := server.New(application)
	req := httptest.NewRequest(http.MethodGet, "/api/reports/statistics.pdf", nil)
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_QARoomLifecycle(t *testing.T) {
	application, cleanup := setupTestApp(t)
	defer cleanup()

	srv := server.New(application)

	// Create a room
	body, _ := json.Marshal(map[string]string{"creator": "dr.smith", "name": "Chest cases"})
	req := httptest.NewRequest(http.MethodPost, "/api/qa/rooms", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var room models.QARoom
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &room))
	assert.NotEmpty(t, room.ID)
	assert.Equal(t, "Chest cases", room.Name)
	require.Len(t, room.Messages, 1, "new room should contain the welcome message")
	assert.Contains(t, room.Messages[0].Content, "Welcome to the Report QA room: Chest cases.")

	// Ask a question in the room; with no credential the stored answer is the
	// degraded-mode message
	body, _ = json.Marshal(map[string]string{"user": "dr.smith", "content": "Any cardiac findings?"})
	req = httptest.NewRequest(http.MethodPost, "/api/qa/rooms/"+room.ID+"/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var postResponse map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &postResponse))
	assert.Equal(t, true, postResponse["degraded"])

	// Room now holds welcome, question and answer
	req = httptest.NewRequest(http.MethodGet, "/api/qa/rooms/"+room.ID+"/messages", nil)
	w = httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var messagesResponse struct {
		Messages []models.RoomMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &messagesResponse))
	require.Len(t, messagesResponse.Messages, 3)
	assert.Equal(t, "dr.smith", messagesResponse.Messages[1].User)
	assert.Equal(t, "Report QA System", messagesResponse.Messages[2].User)
	assert.Equal(t, "Please configure an API key to enable the QA system.", messagesResponse.Messages[2].Content)

	// List rooms
	req = httptest.NewRequest(http.MethodGet, "/api/qa/rooms", nil)
	w = httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var listResponse struct {
		Rooms []models.RoomSummary `json:"rooms"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResponse))
	require.Len(t, listResponse.Rooms, 1)
	assert.Equal(t, room.ID, listResponse.Rooms[0].ID)

	// Delete the room
	req = httptest.NewRequest(http.MethodDelete, "/api/qa/rooms/"+room.ID, nil)
	w = httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// Deleting again reports not found
	req = httptest.NewRequest(http.MethodDelete, "/api/qa/rooms/"+room.ID, nil)
	w = httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_CaseRoomLifecycle(t *testing.T) {
	application, cleanup := setupTestApp(t)
	defer cleanup()

	srv := server.New(application)

	// Create a case discussion room
	body, _ := json.Marshal(map[string]string{
		"creator":     "dr.smith",
		"description": "65yo male with persistent cough",
		"image_type":  "xray",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/rooms", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var room models.CaseRoom
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &room))
	assert.Contains(t, room.ID, "XRAY")
	assert.Contains(t, room.Participants, "dr.smith")
	assert.Contains(t, room.Participants, "Dr. AI Assistant")
	require.Len(t, room.Messages, 1, "new room should contain the assistant welcome")
	assert.Equal(t, "Dr. AI Assistant", room.Messages[0].User)

	// Join as a second clinician
	body, _ = json.Marshal(map[string]string{"user": "dr.jones"})
	req = httptest.NewRequest(http.MethodPost, "/api/rooms/"+room.ID+"/join", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// Post an annotation message
	body, _ = json.Marshal(map[string]string{
		"user":    "dr.jones",
		"content": "Opacity in the right lower lobe",
		"type":    "annotation",
	})
	req = httptest.NewRequest(http.MethodPost, "/api/rooms/"+room.ID+"/messages", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// Fetch the room and verify state
	req = httptest.NewRequest(http.MethodGet, "/api/rooms/"+room.ID, nil)
	w = httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched models.CaseRoom
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Contains(t, fetched.Participants, "dr.jones")
	require.Len(t, fetched.Messages, 2)
	assert.Equal(t, "annotation", fetched.Messages[1].Type)
}

func TestAPI_SettingsRoundTrip(t *testing.T) {
	application, cleanup := setupTestApp(t)
	defer cleanup()

	srv := server.New(application)

	// Store a key
	body, _ := json.Marshal(map[string]string{
		"key":         "gemini_api_key",
		"value":       "AIzaSyExampleKey1234",
		"description": "Gemini credential",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/settings/keys", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// List returns the entry masked
	req = httptest.NewRequest(http.MethodGet, "/api/settings/keys", nil)
	w = httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var entries []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "gemini_api_key", entries[0]["key"])
	assert.Equal(t, "****************1234", entries[0]["value"])

	// Once a key is stored the provider reports configured
	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w = httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, true, health["llm_configured"])

	// Delete the key
	req = httptest.NewRequest(http.MethodDelete, "/api/settings/keys/gemini_api_key", nil)
	w = httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_NotFound(t *testing.T) {
	application, cleanup := setupTestApp(t)
	defer cleanup()

	srv := server.New(application)
	req := httptest.NewRequest(http.MethodGet, "/api/does-not-exist", nil)
	w := httptest.NewRecorder()

	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
