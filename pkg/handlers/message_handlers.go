package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rahulxs/ping-chat/pkg/auth"
	"github.com/rahulxs/ping-chat/pkg/chat"
	"github.com/rahulxs/ping-chat/pkg/models"
)

type MessageHandler struct {
	svc *chat.Service
}

func NewMessageHandler(svc *chat.Service) *MessageHandler {
	return &MessageHandler{svc: svc}
}

// FetchThread returns the conversation with the user in the path, marking
// their messages seen as a side effect of opening the thread.
func (h *MessageHandler) FetchThread(w http.ResponseWriter, r *http.Request) {
	viewerID := auth.GetUserID(r.Context())
	otherUserID := r.PathValue("id")
	if otherUserID == "" {
		http.Error(w, "User ID required", http.StatusBadRequest)
		return
	}

	messages, err := h.svc.FetchThread(r.Context(), viewerID, otherUserID)
	if err != nil {
		writeError(w, err)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}

	writeJSON(w, http.StatusOK, models.ThreadResponse{Messages: messages})
}

func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	senderID := auth.GetUserID(r.Context())
	receiverID := r.PathValue("id")
	if receiverID == "" {
		http.Error(w, "Receiver ID required", http.StatusBadRequest)
		return
	}

	var req models.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.svc.Send(r.Context(), senderID, receiverID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.MessageResponse{Message: *msg})
}

func (h *MessageHandler) MarkSeen(w http.ResponseWriter, r *http.Request) {
	viewerID := auth.GetUserID(r.Context())
	messageID := r.PathValue("id")
	if messageID == "" {
		http.Error(w, "Message ID required", http.StatusBadRequest)
		return
	}

	if err := h.svc.MarkSeen(r.Context(), viewerID, messageID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Marked as seen"})
}

func (h *MessageHandler) RecordCallLog(w http.ResponseWriter, r *http.Request) {
	requesterID := auth.GetUserID(r.Context())

	var req models.CallLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	msg, err := h.svc.RecordCall(r.Context(), requesterID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, models.MessageResponse{Message: *msg})
}

// DeleteMessage handles both scopes via the "for" query parameter,
// defaulting to delete-for-me.
func (h *MessageHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	requesterID := auth.GetUserID(r.Context())
	messageID := r.PathValue("id")
	if messageID == "" {
		http.Error(w, "Message ID required", http.StatusBadRequest)
		return
	}

	scope := chat.DeleteScope(r.URL.Query().Get("for"))
	if scope == "" {
		scope = chat.DeleteScopeMe
	}

	if err := h.svc.Delete(r.Context(), requesterID, messageID, scope); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Message deleted"})
}
