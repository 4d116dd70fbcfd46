package websocket

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/cx-tal-miterani/flight-seats-distributor/shared/models"
)

// Message is the frame sent to watching clients
type Message struct {
	Type      models.EventType `json:"type"`
	FlightID  string           `json:"flightId,omitempty"`
	Event     models.Event     `json:"event"`
	Timestamp int64            `json:"timestamp"`
}

// Hub manages WebSocket connections per flight. Events without a flight,
// such as pause and unpause, reach every client.
type Hub struct {
	clients    map[models.FlightID]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
	mu         sync.RWMutex
	logger     logrus.FieldLogger
	upgrader   websocket.Upgrader
}

// NewHub creates a new Hub accepting browser connections from allowedOrigins.
func NewHub(logger logrus.FieldLogger, allowedOrigins []string) *Hub {
	return &Hub{
		upgrader:   newUpgrader(allowedOrigins),
		clients:    make(map[models.FlightID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
		done:       make(chan struct{}),
		logger:     logger.WithField("component", "websocket"),
	}
}

// Run starts the hub's main loop. It returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for flightID, clients := range h.clients {
				for client := range clients {
					close(client.send)
				}
				delete(h.clients, flightID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.flightID] == nil {
				h.clients[client.flightID] = make(map[*Client]bool)
			}
			h.clients[client.flightID][client] = true
			h.logger.WithFields(logrus.Fields{
				"flight_id": client.flightID.String(),
				"total":     len(h.clients[client.flightID]),
			}).Debug("Client registered")
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// Stop terminates Run and closes every client's send queue.
func (h *Hub) Stop() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

// Publish forwards a committed ledger event to the clients watching its
// flight. It never blocks the ledger; events are dropped when the queue is full.
func (h *Hub) Publish(event models.Event) {
	msg := &Message{
		Type:      event.Type,
		Event:     event,
		Timestamp: event.Timestamp,
	}
	if event.FlightID != nil {
		msg.FlightID = event.FlightID.String()
	}

	select {
	case h.broadcast <- msg:
	default:
		h.logger.WithField("type", event.Type).Warn("Broadcast queue full, dropping event")
	}
}

// GetClientCount returns the number of clients watching a flight
func (h *Hub) GetClientCount(flightID models.FlightID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[flightID])
}

func (h *Hub) deliver(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal message")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var targets []*Client
	if message.FlightID == "" {
		for _, clients := range h.clients {
			for client := range clients {
				targets = append(targets, client)
			}
		}
	} else {
		flightID, err := models.ParseFlightID(message.FlightID)
		if err != nil {
			h.logger.WithField("flight_id", message.FlightID).Warn("Invalid flight ID in broadcast")
			return
		}
		for client := range h.clients[flightID] {
			targets = append(targets, client)
		}
	}

	h.logger.WithFields(logrus.Fields{
		"type":      message.Type,
		"clients":   len(targets),
		"flight_id": message.FlightID,
	}).Debug("Broadcasting event")

	for _, client := range targets {
		select {
		case client.send <- data:
		default:
			h.remove(client)
		}
	}
}

// remove must be called with mu held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.flightID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.flightID)
	}
}
