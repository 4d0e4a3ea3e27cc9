// Package diagnostics exposes a read-only WebSocket spectator feed of a
// network engine session's lifecycle events. Clients cannot send
// commands through it; it only streams whatever is published on an
// events.Bus.
package diagnostics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vidar808/droidfish-netengine/internal/events"
)

const (
	writeTimeout   = 10 * time.Second
	pongTimeout    = 60 * time.Second
	pingInterval   = 54 * time.Second
	clientSendSize = 64
)

// Message is the JSON shape delivered to every connected spectator.
type Message struct {
	Type      string    `json:"type"`
	Phase     string    `json:"phase,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Client is one connected spectator.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Server fans events.SessionState transitions out to connected
// WebSocket spectators.
type Server struct {
	bus        *events.Bus
	logger     *log.Logger
	upgrader   websocket.Upgrader
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
}

// NewServer creates a spectator server fed by bus. originAllowed
// validates the Origin header on upgrade; a nil bus is legal and
// simply never has anything to broadcast.
func NewServer(bus *events.Bus, logger *log.Logger, originAllowed func(string) bool) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		bus:        bus,
		logger:     logger,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				if originAllowed != nil {
					return originAllowed(origin)
				}
				return false
			},
		},
	}
}

// ClientCount returns the number of connected spectators.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Run drives the registration and broadcast loop until ctx is
// cancelled. It must be started before HandleWebSocket serves any
// requests.
func (s *Server) Run(ctx context.Context) {
	sub := events.Subscribe(s.bus, events.SessionStateTopic)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			for client := range s.clients {
				close(client.send)
			}
			s.clients = make(map[*Client]bool)
			s.mu.Unlock()
			return

		case client := <-s.register:
			s.mu.Lock()
			s.clients[client] = true
			s.mu.Unlock()

		case client := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			s.mu.Unlock()

		case state, ok := <-sub.C:
			if !ok {
				return
			}
			s.broadcast(Message{
				Type:      "session_state",
				Phase:     string(state.Phase),
				Detail:    state.Detail,
				Timestamp: time.Now(),
			})
		}
	}
}

func (s *Server) broadcast(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		s.logger.Printf("diagnostics: marshal event: %v", err)
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		select {
		case client.send <- payload:
		default:
			// Slow spectator, drop this update rather than block the feed.
		}
	}
}

// HandleWebSocket upgrades r into a spectator connection.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("diagnostics: upgrade: %v", err)
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, clientSendSize),
	}

	s.register <- client

	go client.writePump()
	go client.readPump(s)
}

// readPump discards any client-sent frames — this feed is read-only —
// and exists only to detect the connection closing and to service
// pong keepalives.
func (c *Client) readPump(s *Server) {
	defer func() {
		s.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
