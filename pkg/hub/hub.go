package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-ducky/pkg/protocol"
)

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	name   string
	logger *slog.Logger

	// Registered clients, guarded by mu
	clients map[*Client]bool
	mu      sync.RWMutex

	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	onMessage    func(*Client, []byte)
	onConnect    func(*Client)
	onDisconnect func(*Client)

	running atomic.Bool
}

// New creates a new Hub
func New(name string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		name:       name,
		logger:     logger.With("component", "hub", "hub", name),
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// OnMessage sets the handler for inbound client messages. It runs on the
// client's read goroutine and must be set before clients connect.
func (h *Hub) OnMessage(fn func(c *Client, data []byte)) {
	h.onMessage = fn
}

// OnConnect sets a callback invoked after a client registers.
func (h *Hub) OnConnect(fn func(c *Client)) {
	h.onConnect = fn
}

// OnDisconnect sets a callback invoked after a client is removed, whether
// it hung up or was dropped for being slow.
func (h *Hub) OnDisconnect(fn func(c *Client)) {
	h.onDisconnect = fn
}

// Run starts the hub's main loop and blocks until ctx is done, at which
// point every client is disconnected.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer func() {
		h.running.Store(false)
		close(h.done)
		h.mu.Lock()
		for client := range h.clients {
			close(client.send)
			delete(h.clients, client)
		}
		h.mu.Unlock()
		h.logger.Debug("hub stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("client connected", "client", client.id, "total", count)
			if h.onConnect != nil {
				h.onConnect(client)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			if ok {
				h.logger.Info("client disconnected", "client", client.id, "remaining", count)
				h.disconnected(client)
			}

		case message := <-h.broadcast:
			var dropped []*Client
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's buffer is full - they're too slow
					close(client.send)
					delete(h.clients, client)
					dropped = append(dropped, client)
				}
			}
			h.mu.Unlock()
			for _, client := range dropped {
				h.logger.Warn("dropped slow client", "client", client.id)
				h.disconnected(client)
			}
		}
	}
}

func (h *Hub) disconnected(c *Client) {
	if h.onDisconnect != nil {
		h.onDisconnect(c)
	}
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("broadcast channel full, dropping message")
	}
}

// BroadcastJSON encodes and broadcasts a JSON message
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewJSONMessage(data))
	return nil
}

// Publish wraps data in a protocol envelope and broadcasts it
func (h *Hub) Publish(msgType protocol.MessageType, data any) error {
	msg, err := protocol.NewMessage(msgType, data)
	if err != nil {
		return err
	}
	wire, err := NewProtocolMessage(msg)
	if err != nil {
		return err
	}
	h.Broadcast(wire)
	return nil
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRunning returns whether the hub is running
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}
