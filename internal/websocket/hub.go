// Package websocket fans listing changes out to connected browsers.
package websocket

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopped    bool
	mu         sync.RWMutex
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		log:        log.With(zap.String("component", "feed")),
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for client := range h.clients {
				client.Close()
			}
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.stopped {
				client.Close()
			} else {
				h.clients[client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer; drop it rather than stall the feed.
					delete(h.clients, client)
					client.Close()
					h.log.Warn("dropped slow feed client", zap.String("user_id", client.userID))
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop shuts the hub down and closes every client. It blocks until Run exits.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	h.mu.Unlock()

	close(h.stop)
	<-h.done
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister removes a client, tolerating a hub that is already stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish implements service.EventPublisher.
func (h *Hub) Publish(eventType string, payload interface{}) {
	event, err := NewEvent(eventType, payload)
	if err != nil {
		h.log.Error("failed to encode event", zap.String("type", eventType), zap.Error(err))
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("failed to marshal event", zap.String("type", eventType), zap.Error(err))
		return
	}

	select {
	case h.broadcast <- data:
	case <-h.done:
	default:
		h.log.Warn("feed backlog full, event dropped", zap.String("type", eventType))
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
