// Package notify implements the change-broadcast channel. Every confirmed
// mutation publishes one event that is fanned out to all currently connected
// WebSocket clients. Delivery is fire-and-forget and at-most-once: there is
// no persistence or replay, a client that connects after a publish never
// sees that event.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/jmrivas/conteo/internal/domain"
)

// EventName is the single event name carried on the channel.
const EventName = "cambio_datos"

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Event is the payload broadcast on every confirmed create/update/delete.
type Event struct {
	Event  string      `json:"event"`
	Action Action      `json:"action"`
	Tipo   domain.Tipo `json:"tipo,omitempty"`
	Data   any         `json:"data,omitempty"`
}

// Publisher is the interface mutation paths depend on, so tests can swap in
// a recording double and callers never touch the hub directly.
type Publisher interface {
	Publish(ev Event)
}

// Noop discards every event. It stands in wherever no transport is wired up
// yet; publishing to it is always safe.
type Noop struct{}

func (Noop) Publish(Event) {}

const writeTimeout = 5 * time.Second

// Hub fans events out to connected WebSocket clients. One Hub exists per
// process, mounted on the main HTTP server; Close tears down all
// connections.
type Hub struct {
	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex

	broadcast chan Event

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Event, 100),
		ctx:       ctx,
		cancel:    cancel,
		logger:    logger,
	}
	h.wg.Add(1)
	go h.run()
	return h
}

// Publish queues ev for delivery to every connected client. It never blocks
// the caller: when the buffer is full the event is dropped with a log line,
// and publishing to a closed hub is a no-op.
func (h *Hub) Publish(ev Event) {
	if ev.Event == "" {
		ev.Event = EventName
	}
	select {
	case h.broadcast <- ev:
	case <-h.ctx.Done():
	default:
		h.logger.Warn("broadcast buffer full, dropping event", "action", ev.Action)
	}
}

func (h *Hub) run() {
	defer h.wg.Done()

	for {
		select {
		case <-h.ctx.Done():
			return

		case ev := <-h.broadcast:
			data, err := json.Marshal(ev)
			if err != nil {
				h.logger.Error("failed to marshal event", "error", err)
				continue
			}

			h.clientsMu.RLock()
			conns := make([]*websocket.Conn, 0, len(h.clients))
			for conn := range h.clients {
				conns = append(conns, conn)
			}
			h.clientsMu.RUnlock()

			// Writes happen outside the lock so a slow client cannot stall
			// new connections.
			for _, conn := range conns {
				ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
				err := conn.Write(ctx, websocket.MessageText, data)
				cancel()
				if err != nil {
					h.logger.Debug("failed to write to client", "error", err)
					h.removeClient(conn)
				}
			}
		}
	}
}

// ServeHTTP upgrades the request to a WebSocket connection and keeps it
// registered until the client disconnects or the hub closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	h.clientsMu.Lock()
	h.clients[conn] = true
	total := len(h.clients)
	h.clientsMu.Unlock()

	h.logger.Info("client connected", "clients", total)

	go h.readLoop(conn)
}

// readLoop drains the connection so pings and close frames are handled; the
// channel is broadcast-only, client messages are ignored.
func (h *Hub) readLoop(conn *websocket.Conn) {
	defer h.removeClient(conn)

	for {
		if _, _, err := conn.Read(h.ctx); err != nil {
			return
		}
	}
}

func (h *Hub) removeClient(conn *websocket.Conn) {
	h.clientsMu.Lock()
	if _, ok := h.clients[conn]; !ok {
		h.clientsMu.Unlock()
		return
	}
	delete(h.clients, conn)
	total := len(h.clients)
	h.clientsMu.Unlock()

	_ = conn.Close(websocket.StatusNormalClosure, "")
	h.logger.Info("client disconnected", "clients", total)
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and stops the broadcast loop.
func (h *Hub) Close() {
	h.cancel()

	h.clientsMu.Lock()
	for conn := range h.clients {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		delete(h.clients, conn)
	}
	h.clientsMu.Unlock()

	h.wg.Wait()
}
