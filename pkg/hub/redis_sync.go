package hub

import (
	"context"
	"encoding/json"
	"log"
)

// eventsChannel carries dispatches between instances so a recipient
// connected elsewhere still gets its push.
const eventsChannel = "pingchat_events"

type wireEvent struct {
	Origin  string          `json:"origin"`
	Event   string          `json:"event"`
	Targets []string        `json:"targets"`
	Data    json.RawMessage `json:"data"`
}

func (h *Hub) publishEvent(eventType string, targets []string, data []byte) {
	if h.rdb == nil {
		return
	}

	payload, err := json.Marshal(wireEvent{
		Origin:  h.instanceID,
		Event:   eventType,
		Targets: targets,
		Data:    data,
	})
	if err != nil {
		log.Printf("Error marshaling sync event: %v", err)
		return
	}

	go func() {
		if err := h.rdb.Publish(context.Background(), eventsChannel, payload).Err(); err != nil {
			log.Printf("Error publishing sync event: %v", err)
		}
	}()
}

// ListenEvents delivers events published by other instances to local
// clients. Events this instance published are skipped; local delivery
// already happened inline.
func (h *Hub) ListenEvents(ctx context.Context) {
	if h.rdb == nil {
		return
	}

	pubsub := h.rdb.Subscribe(ctx, eventsChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	log.Println("Listening for cross-instance events...")

	for msg := range ch {
		var incoming wireEvent
		if err := json.Unmarshal([]byte(msg.Payload), &incoming); err != nil {
			log.Printf("Error unmarshaling sync event: %v", err)
			continue
		}
		if incoming.Origin == h.instanceID {
			continue
		}

		for _, userID := range incoming.Targets {
			h.deliverLocal(userID, incoming.Event, incoming.Data)
		}
	}
}
