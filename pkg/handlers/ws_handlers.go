package handlers

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rahulxs/ping-chat/pkg/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the CORS layer in front of us.
		return true
	},
}

// HandleWS attaches a connection to the hub. The connection identifies its
// user through the userId handshake query parameter; the upstream gateway
// has already validated the session.
func HandleWS(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("userId")
		if userID == "" {
			http.Error(w, "userId required", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade error: %v", err)
			return
		}

		client := &hub.Client{
			Hub:    h,
			UserID: userID,
			ConnID: uuid.New().String(),
			Conn:   conn,
			Send:   make(chan []byte, 256),
		}

		h.Register <- client

		go client.WritePump()
		go client.ReadPump()

		log.Printf("WebSocket connection established: user=%s, conn=%s", userID, client.ConnID)
	}
}
