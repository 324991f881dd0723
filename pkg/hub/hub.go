package hub

import (
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/rahulxs/ping-chat/pkg/metrics"
	"github.com/rahulxs/ping-chat/pkg/models"
	"github.com/rahulxs/ping-chat/pkg/presence"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// Hub owns the presence registry and pushes events to live connections. All
// pushes are best effort: an unreachable or slow recipient is treated as
// offline and the message stays retrievable from storage.
type Hub struct {
	registry *presence.Registry[*Client]

	// Channels for client management; connection handlers feed these and
	// Run applies them on a single timeline.
	Register   chan *Client
	Unregister chan *Client

	// rdb is optional; when set, dispatches also fan out over pub/sub so
	// recipients connected to other instances get them.
	rdb        *redis.Client
	instanceID string
}

func NewHub(rdb *redis.Client) *Hub {
	return &Hub{
		registry:   presence.NewRegistry[*Client](),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		rdb:        rdb,
		instanceID: uuid.New().String(),
	}
}

func (h *Hub) Run() {
	log.Println("WebSocket hub started")
	for {
		select {
		case client := <-h.Register:
			h.handleRegister(client)
		case client := <-h.Unregister:
			h.handleUnregister(client)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	prev, replaced := h.registry.Register(client.UserID, client)
	if replaced {
		// The older socket stays open but is no longer deliverable.
		log.Printf("Connection replaced: user=%s, old_conn=%s, new_conn=%s",
			client.UserID, prev.ConnID, client.ConnID)
	}

	metrics.OnlineUsers.Set(float64(h.registry.Len()))
	h.BroadcastRoster()
	log.Printf("Client registered: user=%s, conn=%s", client.UserID, client.ConnID)
}

func (h *Hub) handleUnregister(client *Client) {
	removed := h.registry.Unregister(client.UserID, client)
	client.closeSend()

	if !removed {
		// Disconnect of a connection that was already replaced; the newer
		// entry stays.
		log.Printf("Stale disconnect ignored: user=%s, conn=%s", client.UserID, client.ConnID)
		return
	}

	metrics.OnlineUsers.Set(float64(h.registry.Len()))
	h.BroadcastRoster()
	log.Printf("Client unregistered: user=%s, conn=%s", client.UserID, client.ConnID)
}

// DispatchNewMessage pushes a full message payload to userID if a live
// connection exists; otherwise the message simply waits in storage.
func (h *Hub) DispatchNewMessage(userID string, msg *models.Message) {
	data := marshalEvent(EventNewMessage, msg)
	h.deliverLocal(userID, EventNewMessage, data)
	h.publishEvent(EventNewMessage, []string{userID}, data)
}

// DispatchDeletion pushes a deletion notice to each reachable affected
// user. Targeting keeps deletion events away from unrelated connections.
func (h *Hub) DispatchDeletion(messageID string, affected []string) {
	data := marshalEvent(EventMessageDeleted, DeletionNotice{MessageID: messageID})
	for _, userID := range affected {
		h.deliverLocal(userID, EventMessageDeleted, data)
	}
	h.publishEvent(EventMessageDeleted, affected, data)
}

// BroadcastRoster pushes the current online-user snapshot to every local
// connection. Called after every registry mutation.
func (h *Hub) BroadcastRoster() {
	ids := h.registry.OnlineUserIDs()
	data := marshalEvent(EventOnlineUsers, ids)
	for _, userID := range ids {
		h.deliverLocal(userID, EventOnlineUsers, data)
	}
}

// OnlineUserIDs exposes the registry snapshot for handlers.
func (h *Hub) OnlineUserIDs() []string {
	return h.registry.OnlineUserIDs()
}

func (h *Hub) deliverLocal(userID, eventType string, data []byte) {
	client, ok := h.registry.Lookup(userID)
	if !ok {
		metrics.EventsSkipped.WithLabelValues(eventType).Inc()
		return
	}
	if !client.enqueue(data) {
		// Buffer full or connection torn down mid-push: the recipient is
		// effectively offline now, and the write already committed.
		log.Printf("Push dropped: user=%s, conn=%s, event=%s", userID, client.ConnID, eventType)
		metrics.EventsSkipped.WithLabelValues(eventType).Inc()
		return
	}
	metrics.EventsDelivered.WithLabelValues(eventType).Inc()
}
