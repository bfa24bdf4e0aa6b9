// Package stream pushes per-tick simulator snapshots to websocket clients.
//
// The Hub is a sim.TickObserver: the tick loop hands it a snapshot, the hub
// serializes it and queues it without blocking. Its own goroutine (Run) fans
// the message out to connected clients; slow clients are dropped rather than
// allowed to stall the simulation.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/haulsim/haulsim/sim"
)

// Message types.
const (
	MessageTick    = "tick"
	MessageSummary = "summary"
)

// Message is the JSON envelope sent to clients.
type Message struct {
	Type     string        `json:"type"`
	Tick     int64         `json:"tick"`
	Snapshot *sim.Snapshot `json:"snapshot,omitempty"`
	Summary  *sim.Summary  `json:"summary,omitempty"`
}

const broadcastBuffer = 256

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{} // closed when Run returns
	mu         sync.Mutex

	upgrader websocket.Upgrader
	dropped  int
}

// NewHub creates a Hub. Call Run to start delivering messages.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Run handles registration and fan-out until ctx is done. Messages already
// queued are delivered before every client is closed.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.drain()
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			logrus.Info("[stream] hub shutting down")
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			logrus.Debugf("[stream] client connected from %s", c.conn.RemoteAddr())
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				logrus.Debugf("[stream] client disconnected from %s", c.conn.RemoteAddr())
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

// drain fans out whatever is still buffered in the broadcast channel.
func (h *Hub) drain() {
	for {
		select {
		case msg := <-h.broadcast:
			h.fanOut(msg)
		default:
			return
		}
	}
}

func (h *Hub) fanOut(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			close(c.send)
			delete(h.clients, c)
			logrus.Warnf("[stream] dropped slow client %s", c.conn.RemoteAddr())
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} { return h.done }

// ObserveTick implements sim.TickObserver. It never blocks: when the
// broadcast buffer is full the snapshot is dropped and counted.
func (h *Hub) ObserveTick(snap sim.Snapshot) {
	h.publish(Message{Type: MessageTick, Tick: snap.Tick, Snapshot: &snap})
}

// PublishSummary sends the end-of-run summary to every client.
func (h *Hub) PublishSummary(s *sim.Summary) {
	h.publish(Message{Type: MessageSummary, Tick: s.RunTicks, Summary: s})
}

func (h *Hub) publish(m Message) {
	payload, err := json.Marshal(m)
	if err != nil {
		logrus.Errorf("[stream] marshal %s message: %v", m.Type, err)
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.mu.Lock()
		h.dropped++
		h.mu.Unlock()
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped returns how many messages were discarded because the hub was behind.
func (h *Hub) Dropped() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// ServeHTTP upgrades the request to a websocket and attaches the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Warnf("[stream] upgrade failed: %v", err)
		return
	}
	c := newClient(h, conn)
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

// Handler returns a mux serving the websocket at /ws.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	return mux
}
