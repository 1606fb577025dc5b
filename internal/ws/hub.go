package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/legphel-eats/fnb-dashboard/internal/enum"
)

// Topics a client can subscribe to.
const (
	TopicBills         = "bills"
	TopicMenuItems     = "menu_items"
	TopicNotifications = "notifications"
)

// AllTopics is the default subscription.
var AllTopics = []string{TopicBills, TopicMenuItems, TopicNotifications}

// topicOf routes an event type to its topic.
func topicOf(eventType string) string {
	switch eventType {
	case enum.EventMenuItems:
		return TopicMenuItems
	case enum.EventNotification:
		return TopicNotifications
	default:
		return TopicBills
	}
}

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Notification is the payload of a notification event.
type Notification struct {
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// topicEvent is an internal struct for routing events to one topic
type topicEvent struct {
	Topic string
	Event Event
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients by topic
	rooms map[string]map[*Client]bool

	// Inbound messages from clients (register/unregister)
	register   chan *Client
	unregister chan *Client

	// Outbound messages to broadcast
	broadcast chan *topicEvent

	done     chan struct{}
	stopOnce sync.Once

	// Mutex for thread-safe room access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *topicEvent, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop until Stop is called.
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for _, clients := range h.rooms {
				for client := range clients {
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			for _, topic := range client.topics {
				if h.rooms[topic] == nil {
					h.rooms[topic] = make(map[*Client]bool)
				}
				h.rooms[topic][client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			// Marshal event to JSON once
			message, err := json.Marshal(event.Event)
			if err != nil {
				slog.Error("Failed to marshal websocket event", "type", event.Event.Type, "error", err)
				continue
			}

			h.mu.Lock()
			for client := range h.rooms[event.Topic] {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, drop it
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// removeLocked drops client from every room it joined and closes its send
// channel once. Empty rooms are cleaned up.
func (h *Hub) removeLocked(client *Client) {
	for _, topic := range client.topics {
		clients, ok := h.rooms[topic]
		if !ok {
			continue
		}
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, topic)
		}
	}
	if !client.closed {
		client.closed = true
		close(client.send)
	}
}

// Stop ends Run and disconnects every client. Safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Broadcast sends an event to all clients subscribed to topic. It is a no-op
// once the hub has stopped.
func (h *Hub) Broadcast(topic string, event Event) {
	select {
	case h.broadcast <- &topicEvent{Topic: topic, Event: event}:
	case <-h.done:
	}
}

// Publish marshals payload and broadcasts it on the event type's topic.
func (h *Hub) Publish(eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal websocket payload", "type", eventType, "error", err)
		return
	}
	h.Broadcast(topicOf(eventType), Event{Type: eventType, Payload: data})
}

// Notify logs and pushes an operator notification.
func (h *Hub) Notify(kind, message string) {
	slog.Info("notification", "kind", kind, "message", message)
	h.Publish(enum.EventNotification, Notification{Kind: kind, Message: message, At: time.Now()})
}

// ClientCount returns the number of distinct connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[*Client]bool)
	for _, clients := range h.rooms {
		for c := range clients {
			seen[c] = true
		}
	}
	return len(seen)
}
