package handlers

import (
	"net/http"

	"github.com/rahulxs/ping-chat/pkg/auth"
	"github.com/rahulxs/ping-chat/pkg/chat"
	"github.com/rahulxs/ping-chat/pkg/hub"
	"github.com/rahulxs/ping-chat/pkg/models"
)

type UserHandler struct {
	svc *chat.Service
	hub *hub.Hub
}

func NewUserHandler(svc *chat.Service, h *hub.Hub) *UserHandler {
	return &UserHandler{svc: svc, hub: h}
}

// GetConversationPartners returns the sidebar roster: every user except the
// viewer, plus the sparse unseen-count map.
func (h *UserHandler) GetConversationPartners(w http.ResponseWriter, r *http.Request) {
	viewerID := auth.GetUserID(r.Context())

	resp, err := h.svc.ListPartners(r.Context(), viewerID)
	if err != nil {
		writeError(w, err)
		return
	}
	if resp.Users == nil {
		resp.Users = []models.User{}
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetOnlineUsers returns the current presence snapshot; the same roster a
// connected client receives as a push event.
func (h *UserHandler) GetOnlineUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"online_users": h.hub.OnlineUserIDs(),
	})
}
