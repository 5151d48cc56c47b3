package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kubewatch/kubewatch/internal/api"
	"github.com/kubewatch/kubewatch/internal/store"
)

const (
	// writeWait bounds any single frame write, data or control.
	writeWait = 5 * time.Second

	// pongWait is how long a session may go without answering a ping.
	pongWait = 45 * time.Second

	// pingInterval keeps two pings inside every pongWait window.
	pingInterval = pongWait * 2 / 3

	// queueLen is the per-session outgoing frame queue. Status frames go
	// out once per collect interval, so a shallow queue already means the
	// browser has stopped reading.
	queueLen = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 2048,
	// Origin checks belong to the reverse proxy in front of the dashboard.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the envelope every frame carries.
type Message struct {
	Event string             `json:"event"`
	Data  api.StatusResponse `json:"data"`
}

// Hub fans the latest observation out to every connected dashboard session
// on a fixed cadence.
type Hub struct {
	store    *store.Store
	interval time.Duration

	mu       sync.Mutex
	sessions map[*session]struct{}
}

// session is one upgraded dashboard connection.
type session struct {
	conn  *websocket.Conn
	queue chan []byte
}

// New creates a Hub that snapshots st into a status frame every interval.
func New(st *store.Store, interval time.Duration) *Hub {
	return &Hub{
		store:    st,
		interval: interval,
		sessions: make(map[*session]struct{}),
	}
}

// Run drives the push cadence until ctx ends, then hangs up every session.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.hangupAll()
			return
		case <-t.C:
			h.push()
		}
	}
}

// ServeHTTP upgrades the request and serves the session until it closes.
// The current status goes out as the first frame so the UI renders without
// waiting for a tick.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade failures already carry a written response.
		return
	}

	if data, err := h.statusFrame(); err == nil {
		conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			return
		}
	}

	s := &session{
		conn:  conn,
		queue: make(chan []byte, queueLen),
	}
	h.attach(s)
	defer h.detach(s)

	go s.writeLoop()
	s.readLoop() // returns when the peer goes away
}

// Count reports how many sessions are attached.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *Hub) attach(s *session) {
	h.mu.Lock()
	h.sessions[s] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) detach(s *session) {
	h.mu.Lock()
	if _, ok := h.sessions[s]; ok {
		delete(h.sessions, s)
		close(s.queue)
	}
	h.mu.Unlock()
}

// push builds one status frame and queues it for every session. A session
// whose queue is full has stopped draining and gets detached instead.
func (h *Hub) push() {
	data, err := h.statusFrame()
	if err != nil {
		return
	}

	h.mu.Lock()
	stalled := make([]*session, 0)
	for s := range h.sessions {
		select {
		case s.queue <- data:
		default:
			stalled = append(stalled, s)
		}
	}
	h.mu.Unlock()

	for _, s := range stalled {
		h.detach(s)
	}
}

// statusFrame renders the latest observation. An empty store still yields a
// frame so a freshly started dashboard shows an empty cluster, not silence.
func (h *Hub) statusFrame() ([]byte, error) {
	msg := Message{Event: "status"}
	if obs := h.store.Latest(); obs != nil {
		msg.Data = api.BuildStatus(obs)
	}
	return json.Marshal(msg)
}

func (h *Hub) hangupAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.sessions {
		close(s.queue)
		delete(h.sessions, s)
	}
}

// writeLoop forwards queued frames to the connection and keeps the ping
// schedule. One per session.
func (s *session) writeLoop() {
	pings := time.NewTicker(pingInterval)
	defer func() {
		pings.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case data, open := <-s.queue:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if !open {
				// Detached by the hub; say goodbye properly.
				s.conn.WriteMessage(websocket.CloseMessage, nil) //nolint:errcheck
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-pings.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop consumes inbound frames so control messages are handled. The
// dashboard never sends data frames; anything large is a misbehaving peer.
func (s *session) readLoop() {
	defer s.conn.Close()
	s.conn.SetReadLimit(256)
	s.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			return
		}
	}
}
