// Package relay fans live log lines out to connected browsers over
// websockets. The session store notifies the hub on every appended line; each
// dashboard page keeps one socket open so the results tab updates without a
// reload.
package relay

import "log"

// Hub tracks the connected browsers and broadcasts log lines to all of them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
}

// NewHub creates a hub. Run must be started in its own goroutine before any
// client connects.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Broadcast queues one log line for delivery to every connected browser.
// When the queue is full the line is dropped; the durable log history in the
// store is the source of truth, the relay is best-effort.
func (h *Hub) Broadcast(line string) {
	select {
	case h.broadcast <- []byte(line):
	default:
		log.Printf("[Relay] broadcast queue full, dropping line")
	}
}

// Run serializes all client registration and delivery on one goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			log.Printf("[Relay] browser connected, %d total", len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("[Relay] browser disconnected, %d total", len(h.clients))
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// A client that cannot keep up is dropped rather than
					// allowed to stall the others.
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}
