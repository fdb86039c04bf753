package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// eventName is the named SSE event carrying alert payloads.
const eventName = "thresholdAlert"

// SSEConfig holds configuration for the SSE handler.
type SSEConfig struct {
	// HeartbeatInterval is how often a comment frame is written to keep
	// long-lived connections alive.
	HeartbeatInterval time.Duration
}

// DefaultSSEConfig returns the default SSE handler configuration.
func DefaultSSEConfig() SSEConfig {
	return SSEConfig{
		HeartbeatInterval: 25 * time.Second,
	}
}

// SSEHandler returns an http.HandlerFunc that streams alert events to the
// client as Server-Sent Events until the client disconnects. Disconnection
// unsubscribes the listener synchronously.
func SSEHandler(hub *Hub, logger zerolog.Logger) http.HandlerFunc {
	return SSEHandlerWithConfig(DefaultSSEConfig(), hub, logger)
}

// SSEHandlerWithConfig creates an SSE handler with custom configuration.
func SSEHandlerWithConfig(config SSEConfig, hub *Hub, logger zerolog.Logger) http.HandlerFunc {
	if config.HeartbeatInterval <= 0 {
		config.HeartbeatInterval = DefaultSSEConfig().HeartbeatInterval
	}
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		events, unsubscribe := hub.Subscribe()
		defer unsubscribe()

		heartbeat := time.NewTicker(config.HeartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case event, ok := <-events:
				if !ok {
					return
				}
				data, err := json.Marshal(event)
				if err != nil {
					logger.Error().Err(err).Msg("Failed to marshal alert event")
					continue
				}
				fmt.Fprintf(w, "event: %s\n", eventName)
				fmt.Fprintf(w, "data: %s\n\n", data)
				flusher.Flush()
			case <-heartbeat.C:
				fmt.Fprintf(w, ": heartbeat %d\n\n", time.Now().UnixMilli())
				flusher.Flush()
			}
		}
	}
}
