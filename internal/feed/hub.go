// Package feed streams arena events to WebSocket spectators.
package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"example.com/arena-mvp/internal/arena"
	"github.com/gorilla/websocket"
)

const pingInterval = 25 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Envelope is the frame sent to clients: {"type":"...","payload":{...}}.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type client struct {
	ws     *websocket.Conn
	remote string
	send   chan []byte

	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// Hub fans events out to connected spectators. A client whose buffer is
// full is dropped rather than blocking the publisher.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}

	buffer int
	log    *slog.Logger
}

func NewHub(buffer int, log *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		buffer:  buffer,
		log:     log,
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish never blocks on a slow client.
func (h *Hub) Publish(_ context.Context, ev arena.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(Envelope{Type: string(ev.Type), Payload: payload})
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.Warn("feed client too slow, dropping", "remote", c.remote)
			delete(h.clients, c)
			c.close()
		}
	}
	return nil
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

// ServeHTTP upgrades the request and streams events until the peer goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &client{
		ws:     ws,
		remote: r.RemoteAddr,
		send:   make(chan []byte, h.buffer),
	}
	h.add(c)
	h.log.Debug("feed client connected", "remote", r.RemoteAddr)

	// writer loop
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		defer ws.Close()

		for {
			select {
			case msg, ok := <-c.send:
				if !ok {
					_ = ws.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := ws.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			case <-ticker.C:
				if err := ws.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
					return
				}
			}
		}
	}()

	// reader loop: spectators have nothing to say, we only watch for close
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(c)
	h.log.Debug("feed client disconnected", "remote", r.RemoteAddr)
}
