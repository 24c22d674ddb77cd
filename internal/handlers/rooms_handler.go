package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/mediscan/internal/common"
	"github.com/ternarybob/mediscan/internal/interfaces"
	"github.com/ternarybob/mediscan/internal/models"
	"github.com/ternarybob/mediscan/internal/services/rooms"
)

// RoomsHandler handles multi-clinician case discussion rooms.
type RoomsHandler struct {
	rooms       interfaces.CaseRoomStore
	assistant   *rooms.Assistant
	reportStore interfaces.ReportStore
	ws          *WebSocketHandler
	logger      arbor.ILogger
}

// NewRoomsHandler creates a case rooms handler.
func NewRoomsHandler(
	caseRooms interfaces.CaseRoomStore,
	assistant *rooms.Assistant,
	reportStore interfaces.ReportStore,
	ws *WebSocketHandler,
	logger arbor.ILogger,
) *RoomsHandler {
	return &RoomsHandler{
		rooms:       caseRooms,
		assistant:   assistant,
		reportStore: reportStore,
		ws:          ws,
		logger:      logger,
	}
}

// RoomsHandler handles /api/rooms - GET lists rooms, POST creates one.
func (h *RoomsHandler) RoomsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		summaries, err := h.rooms.ListRooms()
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to list case rooms")
			WriteError(w, http.StatusInternalServerError, "Failed to list rooms")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]interface{}{"rooms": summaries})

	case "POST":
		var req struct {
			ID          string `json:"id"`
			Creator     string `json:"creator"`
			Description string `json:"description"`
			ImageType   string `json:"image_type"`
		}
		if !DecodeJSONBody(w, r, &req) {
			return
		}
		if req.Creator == "" {
			WriteError(w, http.StatusBadRequest, "Missing creator")
			return
		}

		roomID := req.ID
		if roomID == "" {
			imageType := strings.ToUpper(req.ImageType)
			if imageType == "" {
				imageType = "CASE"
			}
			roomID = common.NewCaseRoomID(imageType, time.Now())
		}

		room, err := h.rooms.Create(roomID, req.Creator, req.Description)
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to create case room")
			WriteError(w, http.StatusInternalServerError, "Failed to create room")
			return
		}
		WriteJSON(w, http.StatusOK, room)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// RoomRoutes handles /api/rooms/{id}, /api/rooms/{id}/join and
// /api/rooms/{id}/messages.
func (h *RoomsHandler) RoomRoutes(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/rooms/")
	if rest == "" {
		WriteError(w, http.StatusBadRequest, "Missing room id")
		return
	}

	if roomID, ok := strings.CutSuffix(rest, "/join"); ok {
		if !RequireMethod(w, r, "POST") {
			return
		}
		h.joinRoom(w, r, roomID)
		return
	}

	if roomID, ok := strings.CutSuffix(rest, "/messages"); ok {
		switch r.Method {
		case "GET":
			h.listMessages(w, roomID)
		case "POST":
			h.postMessage(w, r, roomID)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if !RequireMethod(w, r, "GET") {
		return
	}
	room, err := h.rooms.Get(rest)
	if err != nil {
		if errors.Is(err, interfaces.ErrRoomNotFound) {
			WriteError(w, http.StatusNotFound, "Room not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to load room")
		return
	}
	WriteJSON(w, http.StatusOK, room)
}

func (h *RoomsHandler) joinRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	var req struct {
		User string `json:"user"`
	}
	if !DecodeJSONBody(w, r, &req) {
		return
	}
	if req.User == "" {
		WriteError(w, http.StatusBadRequest, "Missing user")
		return
	}

	if err := h.rooms.Join(roomID, req.User); err != nil {
		if errors.Is(err, interfaces.ErrRoomNotFound) {
			WriteError(w, http.StatusNotFound, "Room not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to join room")
		return
	}
	WriteSuccess(w, "Joined room")
}

func (h *RoomsHandler) listMessages(w http.ResponseWriter, roomID string) {
	room, err := h.rooms.Get(roomID)
	if err != nil {
		if errors.Is(err, interfaces.ErrRoomNotFound) {
			WriteError(w, http.StatusNotFound, "Room not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to load room")
		return
	}

	messages := room.Messages
	if len(messages) > defaultMessageLimit {
		messages = messages[len(messages)-defaultMessageLimit:]
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

// postMessage appends a clinician message. When ask_assistant is set the AI
// assistant replies using the case description and the latest report's
// findings as context.
func (h *RoomsHandler) postMessage(w http.ResponseWriter, r *http.Request, roomID string) {
	var req struct {
		User         string `json:"user"`
		Content      string `json:"content"`
		Type         string `json:"type"`
		AskAssistant bool   `json:"ask_assistant"`
	}
	if !DecodeJSONBody(w, r, &req) {
		return
	}
	if req.User == "" || strings.TrimSpace(req.Content) == "" {
		WriteError(w, http.StatusBadRequest, "Missing user or content")
		return
	}

	message, err := h.rooms.AddMessage(roomID, req.User, req.Content, req.Type)
	if err != nil {
		if errors.Is(err, interfaces.ErrRoomNotFound) {
			WriteError(w, http.StatusNotFound, "Room not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to add message")
		return
	}
	h.ws.BroadcastRoomMessage(roomID, message)

	response := map[string]interface{}{"message": message}

	if req.AskAssistant {
		room, err := h.rooms.Get(roomID)
		if err == nil {
			reply := h.assistant.Respond(r.Context(), req.Content, room.Description, h.latestFindings())
			if replyMessage, err := h.rooms.AddMessage(roomID, rooms.AssistantUser, reply, models.MessageTypeText); err == nil {
				h.ws.BroadcastRoomMessage(roomID, replyMessage)
				response["reply"] = replyMessage
			}
		}
	}

	WriteJSON(w, http.StatusOK, response)
}

// latestFindings returns the findings of the most recent report, if any.
func (h *RoomsHandler) latestFindings() []string {
	reports, err := h.reportStore.Latest(1)
	if err != nil || len(reports) == 0 {
		return nil
	}
	return reports[0].Findings
}
