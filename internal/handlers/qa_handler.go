package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mediscan/internal/interfaces"
	"github.com/ternarybob/mediscan/internal/services/qa"
)

// defaultMessageLimit caps room message listings unless overridden.
const defaultMessageLimit = 50

// qaAnswerUser is the author attached to automated answers in QA rooms.
const qaAnswerUser = "Report QA System"

// QAHandler handles report question-answering sessions and QA chat rooms.
type QAHandler struct {
	sessions *qa.SessionManager
	rooms    interfaces.QARoomStore
	ws       *WebSocketHandler
	logger   arbor.ILogger
}

// NewQAHandler creates a QA handler.
func NewQAHandler(sessions *qa.SessionManager, rooms interfaces.QARoomStore, ws *WebSocketHandler, logger arbor.ILogger) *QAHandler {
	return &QAHandler{
		sessions: sessions,
		rooms:    rooms,
		ws:       ws,
		logger:   logger,
	}
}

// AskHandler handles POST /api/qa/ask - answers a question within a session.
func (h *QAHandler) AskHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
		Question  string `json:"question"`
	}
	if !DecodeJSONBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		WriteError(w, http.StatusBadRequest, "Missing question")
		return
	}
	if req.SessionID == "" {
		req.SessionID = "default"
	}

	result := h.sessions.Ask(r.Context(), req.SessionID, req.Question)
	WriteJSON(w, http.StatusOK, result)
}

// ClearHandler handles POST /api/qa/clear - resets a session's history.
func (h *QAHandler) ClearHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
	}
	if !DecodeJSONBody(w, r, &req) {
		return
	}
	if req.SessionID == "" {
		req.SessionID = "default"
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"message": h.sessions.Clear(req.SessionID),
	})
}

// RoomsHandler handles /api/qa/rooms - GET lists rooms, POST creates one.
func (h *QAHandler) RoomsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		rooms, err := h.rooms.ListRooms()
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to list QA rooms")
			WriteError(w, http.StatusInternalServerError, "Failed to list rooms")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"rooms": rooms})

	case "POST":
		var req struct {
			Creator string `json:"creator"`
			Name    string `json:"name"`
		}
		if !DecodeJSONBody(w, r, &req) {
			return
		}
		if req.Creator == "" {
			WriteError(w, http.StatusBadRequest, "Missing creator")
			return
		}

		room, err := h.rooms.Create(req.Creator, req.Name)
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to create QA room")
			WriteError(w, http.StatusInternalServerError, "Failed to create room")
			return
		}
		WriteJSON(w, http.StatusOK, room)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// RoomRoutes handles /api/qa/rooms/{id} (DELETE) and
// /api/qa/rooms/{id}/messages (GET, POST).
func (h *QAHandler) RoomRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/qa/rooms/")
	if rest == "" {
		WriteError(w, http.StatusBadRequest, "Missing room id")
		return
	}

	if roomID, ok := strings.CutSuffix(rest, "/messages"); ok {
		switch r.Method {
		case "GET":
			h.listMessages(w, r, roomID)
		case "POST":
			h.postMessage(w, r, roomID)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if r.Method == "DELETE" {
		h.deleteRoom(w, rest)
		return
	}
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

func (h *QAHandler) listMessages(w http.ResponseWriter, r *http.Request, roomID string) {
	limit := defaultMessageLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	messages, err := h.rooms.Messages(roomID, limit)
	if err != nil {
		if errors.Is(err, interfaces.ErrRoomNotFound) {
			WriteError(w, http.StatusNotFound, "Room not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to load messages")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

// postMessage appends the user's question to the room and answers it through
// the room's QA session. Both messages are broadcast to websocket clients.
func (h *QAHandler) postMessage(w http.ResponseWriter, r *http.Request, roomID string) {
	var req struct {
		User    string `json:"user"`
		Content string `json:"content"`
	}
	if !DecodeJSONBody(w, r, &req) {
		return
	}
	if req.User == "" || strings.TrimSpace(req.Content) == "" {
		WriteError(w, http.StatusBadRequest, "Missing user or content")
		return
	}

	question, err := h.rooms.AddMessage(roomID, req.User, req.Content)
	if err != nil {
		if errors.Is(err, interfaces.ErrRoomNotFound) {
			WriteError(w, http.StatusNotFound, "Room not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to add message")
		return
	}
	h.ws.BroadcastRoomMessage(roomID, question)

	// Each QA room has its own conversation history
	result := h.sessions.Ask(r.Context(), roomID, req.Content)

	answer, err := h.rooms.AddMessage(roomID, qaAnswerUser, result.Answer)
	if err != nil {
		h.logger.Warn().Err(err).Str("room_id", roomID).Msg("Failed to store QA answer")
		WriteJSON(w, http.StatusOK, map[string]interface{}{"message": question, "answer": result})
		return
	}
	h.ws.BroadcastRoomMessage(roomID, answer)

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":  question,
		"answer":   answer,
		"degraded": result.Degraded,
	})
}

func (h *QAHandler) deleteRoom(w http.ResponseWriter, roomID string) {
	if err := h.rooms.Delete(roomID); err != nil {
		if errors.Is(err, interfaces.ErrRoomNotFound) {
			WriteError(w, http.StatusNotFound, "Room not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to delete room")
		return
	}
	WriteSuccess(w, "Room deleted")
}
