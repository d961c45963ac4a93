package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/quotebar/internal/events"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsPingInterval = 30 * time.Second
)

// EventsStreamHandler pushes bus events to websocket clients
type EventsStreamHandler struct {
	bus          *events.Bus
	log          zerolog.Logger
	pingInterval time.Duration
}

// NewEventsStreamHandler creates a new events stream handler
func NewEventsStreamHandler(bus *events.Bus, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		bus:          bus,
		log:          log.With().Str("component", "events_stream").Logger(),
		pingInterval: wsPingInterval,
	}
}

// ServeHTTP handles GET /api/events/ws. The optional "types" query parameter
// is a comma separated list of event types to receive.
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.bus == nil {
		http.Error(w, "event stream unavailable", http.StatusServiceUnavailable)
		return
	}

	var types []events.EventType
	if filter := r.URL.Query().Get("types"); filter != "" {
		for _, t := range strings.Split(filter, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, events.EventType(t))
			}
		}
	}

	// The server write timeout would otherwise cut the hijacked connection.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	stream, unsubscribe := h.bus.Subscribe(types...)
	defer unsubscribe()

	// Clients only listen; CloseRead handles control frames and cancels ctx
	// when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	h.log.Info().Int("types", len(types)).Msg("Client connected to event stream")

	if err := h.write(ctx, conn, map[string]interface{}{
		"type":      "connected",
		"timestamp": time.Now(),
	}); err != nil {
		return
	}

	ping := time.NewTicker(h.pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Debug().Msg("Event stream client disconnected")
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case ev, ok := <-stream:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := h.write(ctx, conn, ev); err != nil {
				h.log.Debug().Err(err).Msg("Failed to write event")
				return
			}
		case <-ping.C:
			pingCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				h.log.Debug().Err(err).Msg("Ping failed")
				return
			}
		}
	}
}

func (h *EventsStreamHandler) write(ctx context.Context, conn *websocket.Conn, v interface{}) error {
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, v)
}
