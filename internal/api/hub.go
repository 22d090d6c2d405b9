package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/pushpitchhabra/Indian-Markets-dashboard/internal/contracts"
	"github.com/pushpitchhabra/Indian-Markets-dashboard/pkg/logger"
)

// Websocket message types
const (
	// MessageSnapshot carries the stored ranking to a newly connected client
	MessageSnapshot = "snapshot"
	// MessageRanking carries a freshly completed ranking
	MessageRanking = "ranking"
	// MessageLive carries live quote updates during market hours
	MessageLive = "live"
)

// Message is the envelope pushed to websocket subscribers
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub fans ranking updates out to websocket subscribers.
// SSOT: websocket client lifecycle is managed by the hub loop only;
// clients are registered, unregistered, and written to from Run.
type Hub struct {
	store *Store

	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}

	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewHub creates a hub over the given snapshot store
func NewHub(store *Store, log *logger.Logger) *Hub {
	return &Hub{
		store:      store,
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: log,
	}
}

// Run owns the client set until ctx is cancelled. Call in its own
// goroutine before serving any websocket traffic.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}

			// New subscribers immediately see the stored snapshot; the
			// fresh send buffer cannot be full here
			if result, ok := h.store.Latest(); ok {
				if payload, err := json.Marshal(Message{Type: MessageSnapshot, Data: result}); err == nil {
					c.send <- payload
				}
			}
			h.logger.WithField("clients", len(h.clients)).Debug("Websocket client connected")

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.logger.WithField("clients", len(h.clients)).Debug("Websocket client disconnected")

		case payload := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- payload:
				default:
					// A full send buffer means the client stopped
					// draining; drop it rather than stall the hub
					delete(h.clients, c)
					close(c.send)
					h.logger.Warn("Dropped slow websocket client")
				}
			}

		case <-ctx.Done():
			close(h.done)
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.logger.Info("Websocket hub stopped")
			return
		}
	}
}

// BroadcastResult pushes a completed ranking to all subscribers
func (h *Hub) BroadcastResult(result contracts.RankedResult) {
	h.enqueue(Message{Type: MessageRanking, Data: result})
}

// BroadcastLive pushes live quote updates to all subscribers
func (h *Hub) BroadcastLive(quotes map[string]contracts.SymbolQuote) {
	h.enqueue(Message{Type: MessageLive, Data: quotes})
}

// enqueue marshals once and hands the payload to the hub loop without
// ever blocking the caller (scheduler jobs publish from their own
// goroutines)
func (h *Hub) enqueue(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal websocket message")
		return
	}

	select {
	case h.broadcast <- payload:
	case <-h.done:
	default:
		h.logger.Warn("Websocket broadcast queue full, dropping message")
	}
}

// ServeWS upgrades the request and hands the connection to the hub
// GET /ws
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, clientSendBuffer)}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}
