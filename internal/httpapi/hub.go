package httpapi

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"chokepoint-radar/internal/domain"
)

const (
	writeWait      = 10 * time.Second
	clientSendSize = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is served from arbitrary local hosts.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// cycleMessage is pushed to every connected client after a cycle.
type cycleMessage struct {
	Type     string          `json:"type"`
	Detected int             `json:"detected"`
	Saved    int             `json:"saved"`
	Signals  []domain.Signal `json:"signals"`
}

// Hub fans each cycle's results out to connected websocket dashboards.
// Slow clients are dropped rather than allowed to stall the broadcast.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan cycleMessage
	logger     *log.Logger
}

type client struct {
	conn *websocket.Conn
	send chan cycleMessage
}

// NewHub creates a Hub. Call Run before serving connections.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan cycleMessage, 16),
		logger:     logger,
	}
}

// Run processes registrations and broadcasts. It never returns.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// BroadcastCycle pushes one cycle's saved signals to all clients.
func (h *Hub) BroadcastCycle(detected, saved int, signals []domain.Signal) {
	msg := cycleMessage{Type: "cycle", Detected: detected, Saved: saved, Signals: signals}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Println("Dropping cycle broadcast: hub backlog full")
	}
}

// Serve upgrades the request and attaches the client to the hub.
func (h *Hub) Serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Printf("Websocket upgrade failed: %v", err)
		return
	}

	cl := &client{conn: conn, send: make(chan cycleMessage, clientSendSize)}
	h.register <- cl

	go cl.writeLoop()
	go cl.readLoop(h)
}

// writeLoop pushes hub messages to the peer.
func (c *client) writeLoop() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readLoop drains the connection so pings and close frames are handled,
// then unregisters on any read error.
func (c *client) readLoop(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
