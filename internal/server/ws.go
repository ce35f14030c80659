package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/dwell"
)

const (
	// pollInterval is how often the broadcaster looks for a new frame.
	pollInterval = 8 * time.Millisecond
	writeTimeout = 5 * time.Second
	clientBuffer = 8
	maxReadSize  = 1024
)

// Message types pushed to websocket clients.
const (
	MessageState      = "state"
	MessageActivation = "activation"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Message is one websocket push.
type Message struct {
	Type       string            `json:"type"`
	State      *app.Snapshot     `json:"state,omitempty"`
	Activation *dwell.Activation `json:"activation,omitempty"`
}

type client struct {
	id      string
	conn    *websocket.Conn
	send    chan []byte
	limiter *rate.Limiter
	// frame is the last snapshot frame queued; only the broadcaster touches it
	// after registration.
	frame int64
}

// StateHandler pushes pipeline snapshots and activations to websocket
// clients. Each client receives at most hz state messages per second;
// activations are never throttled. A client that falls behind loses messages.
type StateHandler struct {
	backend Backend
	hz      float64
	log     logrus.FieldLogger

	mu      sync.RWMutex
	clients map[string]*client
}

// NewStateHandler creates a StateHandler. Run must be called to broadcast.
func NewStateHandler(b Backend, hz float64, log logrus.FieldLogger) *StateHandler {
	return &StateHandler{
		backend: b,
		hz:      hz,
		log:     log,
		clients: make(map[string]*client),
	}
}

// ServeHTTP upgrades the request and streams until the client goes away.
func (h *StateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	c := &client{
		id:      uuid.NewString(),
		conn:    conn,
		send:    make(chan []byte, clientBuffer),
		limiter: rate.NewLimiter(rate.Limit(h.hz), 1),
	}
	log := h.log.WithField("client", c.id)

	snap := h.backend.Snapshot()
	if msg, err := json.Marshal(Message{Type: MessageState, State: &snap}); err == nil {
		c.send <- msg
		c.frame = snap.Frame
		c.limiter.Allow()
	}

	h.mu.Lock()
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()
	log.WithField("clients", n).Info("Websocket client connected")

	go h.writePump(c, log)

	conn.SetReadLimit(maxReadSize)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.remove(c)
	log.Info("Websocket client disconnected")
}

func (h *StateHandler) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	close(c.send)
}

func (h *StateHandler) writePump(c *client, log logrus.FieldLogger) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.WithError(err).Debug("Websocket write failed")
			c.conn.Close()
			for range c.send {
			}
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
		time.Now().Add(time.Second))
}

// Clients returns the number of connected clients.
func (h *StateHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run broadcasts until ctx is done.
func (h *StateHandler) Run(ctx context.Context) {
	acts, unsubscribe := h.backend.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var (
		lastFrame = int64(-1)
		state     []byte
	)
	for {
		select {
		case <-ctx.Done():
			return
		case act, ok := <-acts:
			if !ok {
				return
			}
			msg, err := json.Marshal(Message{Type: MessageActivation, Activation: &act})
			if err != nil {
				h.log.WithError(err).Error("Failed to encode activation")
				continue
			}
			h.broadcast(msg)
		case <-ticker.C:
			if h.Clients() == 0 {
				continue
			}
			snap := h.backend.Snapshot()
			if snap.Frame != lastFrame {
				msg, err := json.Marshal(Message{Type: MessageState, State: &snap})
				if err != nil {
					h.log.WithError(err).Error("Failed to encode state")
					continue
				}
				lastFrame, state = snap.Frame, msg
			}
			h.pushState(lastFrame, state)
		}
	}
}

// broadcast queues msg for every client.
func (h *StateHandler) broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		h.queue(c, msg)
	}
}

// pushState queues a state message for clients that have not seen frame and
// are within their rate.
func (h *StateHandler) pushState(frame int64, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if c.frame == frame || !c.limiter.Allow() {
			continue
		}
		if h.queue(c, msg) {
			c.frame = frame
		}
	}
}

func (h *StateHandler) queue(c *client, msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		h.log.WithField("client", c.id).Debug("Dropped message for slow client")
		return false
	}
}

// closeAll disconnects every client.
func (h *StateHandler) closeAll() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
}
