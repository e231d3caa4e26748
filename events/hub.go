package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/pos-dashboard/utils"
)

// Type names an event emitted by the dashboard controllers.
type Type string

// Event types
const (
	EventBasketLoaded         Type = "basket_loaded"
	EventMutationFailed       Type = "mutation_failed"
	EventOrderCreated         Type = "order_created"
	EventCheckoutStateChanged Type = "checkout_state_changed"
	EventPriceChangeRequired  Type = "price_change_confirmation_required"
	EventTrackingUpdated      Type = "tracking_updated"
	EventTrackingRemoved      Type = "tracking_removed"
	EventUpdatableRefreshed   Type = "updatable_orders_refreshed"
	EventOrderUpdated         Type = "order_updated"
	EventOrderCancelled       Type = "order_cancelled"
	EventNotification         Type = "notification"
	EventPollingStateChanged  Type = "polling_state_changed"
	EventEditSessionChanged   Type = "edit_session_changed"
	EventCancelSessionChanged Type = "cancel_session_changed"
)

type Event struct {
	ID   uuid.UUID   `json:"id"`
	Type Type        `json:"event"`
	At   time.Time   `json:"at"`
	Data interface{} `json:"data"`
}

// Publisher is what the controllers need from the hub.
type Publisher interface {
	Publish(eventType Type, data interface{}) Event
	Notify(level Level, message string) Event
}

const (
	writeWait      = 10 * time.Second
	clientSendSize = 256
)

// client owns one websocket connection. Only its writePump writes to conn.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			utils.ErrorLogger.WithError(err).Warn("websocket write failed, closing client")
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// Hub fans events out to in-process subscribers and websocket clients.
// Publishing never waits on a connection.
type Hub struct {
	clients     map[*websocket.Conn]*client
	subscribers map[chan Event]struct{}
	mutex       sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		clients:     make(map[*websocket.Conn]*client),
		subscribers: make(map[chan Event]struct{}),
	}
}

// RegisterClient adds a websocket connection to the broadcast set and starts
// its writer.
func (h *Hub) RegisterClient(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, clientSendSize)}
	h.mutex.Lock()
	h.clients[conn] = c
	h.mutex.Unlock()
	go c.writePump()
}

// UnregisterClient removes a websocket connection; its writer closes it.
func (h *Hub) UnregisterClient(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.dropLocked(conn)
}

// dropLocked removes conn and stops its writer. Callers hold h.mutex.
func (h *Hub) dropLocked(conn *websocket.Conn) {
	if c, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(c.send)
	}
}

// Subscribe returns a buffered channel of events and a cancel func.
// A slow subscriber loses events rather than blocking publishers.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)

	h.mutex.Lock()
	h.subscribers[ch] = struct{}{}
	h.mutex.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mutex.Lock()
			delete(h.subscribers, ch)
			h.mutex.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// ClientCount returns the number of connected websocket clients.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

func (h *Hub) Publish(eventType Type, data interface{}) Event {
	evt := Event{
		ID:   uuid.New(),
		Type: eventType,
		At:   time.Now(),
		Data: data,
	}
	h.broadcast(evt)
	return evt
}

// Notify publishes a toast notification keyed by a generated id.
func (h *Hub) Notify(level Level, message string) Event {
	return h.Publish(EventNotification, Notification{
		ID:      uuid.New(),
		Level:   level,
		Message: message,
	})
}

func (h *Hub) broadcast(evt Event) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for ch := range h.subscribers {
		select {
		case ch <- evt:
		default:
			utils.ErrorLogger.Warnf("event subscriber is full, dropping %s", evt.Type)
		}
	}

	if len(h.clients) == 0 {
		return
	}

	data, err := json.Marshal(evt)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling event %s: %v", evt.Type, err)
		return
	}

	for conn, c := range h.clients {
		select {
		case c.send <- data:
		default:
			utils.ErrorLogger.Warnf("websocket client too slow, dropping it at %s", evt.Type)
			h.dropLocked(conn)
		}
	}
}
