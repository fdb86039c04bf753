package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// WebSocketBroadcaster relays alert events to websocket clients. It carries
// the same payloads as the SSE stream for clients that prefer a socket.
type WebSocketBroadcaster struct {
	hub      *Hub
	logger   zerolog.Logger
	clients  map[*websocket.Conn]struct{}
	mu       sync.Mutex
	upgrader websocket.Upgrader
}

// NewWebSocketBroadcaster creates a broadcaster bound to the given hub.
func NewWebSocketBroadcaster(hub *Hub, logger zerolog.Logger) *WebSocketBroadcaster {
	return &WebSocketBroadcaster{
		hub:      hub,
		logger:   logger,
		clients:  make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

// Run consumes the hub subscription and fans events out to connected
// clients. It returns when ctx is cancelled.
func (b *WebSocketBroadcaster) Run(ctx context.Context) {
	events, unsubscribe := b.hub.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			b.closeAll()
			return
		case event, ok := <-events:
			if !ok {
				b.closeAll()
				return
			}
			msg, err := json.Marshal(event)
			if err != nil {
				b.logger.Error().Err(err).Msg("Failed to marshal alert event")
				continue
			}
			b.mu.Lock()
			for c := range b.clients {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					b.logger.Debug().Err(err).Msg("Websocket write error, evicting client")
					c.Close()
					delete(b.clients, c)
				}
			}
			b.mu.Unlock()
		}
	}
}

// Handler returns an http.HandlerFunc that accepts websocket connections.
func (b *WebSocketBroadcaster) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			b.logger.Debug().Err(err).Msg("Websocket upgrade error")
			return
		}
		b.mu.Lock()
		b.clients[conn] = struct{}{}
		b.mu.Unlock()

		// Read loop: detects client disconnect and unregisters.
		go func() {
			defer func() {
				b.mu.Lock()
				delete(b.clients, conn)
				b.mu.Unlock()
				conn.Close()
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					break
				}
			}
		}()
	}
}

func (b *WebSocketBroadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		c.Close()
		delete(b.clients, c)
	}
}
