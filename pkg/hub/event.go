package hub

import (
	"encoding/json"
)

// Push event types exposed over the WebSocket.
const (
	EventNewMessage     = "newMessage"
	EventMessageDeleted = "messageDeleted"
	EventOnlineUsers    = "getOnlineUsers"
)

// Event is the envelope every push is wrapped in.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// DeletionNotice tells a client a message was deleted for everyone.
type DeletionNotice struct {
	MessageID string `json:"message_id"`
}

func marshalEvent(eventType string, payload interface{}) []byte {
	body, _ := json.Marshal(payload)
	data, _ := json.Marshal(Event{Type: eventType, Payload: body})
	return data
}
