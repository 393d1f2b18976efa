package eventbus

import (
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Upgrader accepts any origin: the event bus runs on localhost between
// two trusted processes on the same host.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type serverClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub is the SR-side WebSocket server. It accepts RM connections and
// fans every Publish call out to all of them; in steady state exactly
// one RM is connected, but the hub tolerates zero or many.
type Hub struct {
	mu         sync.Mutex
	clients    map[*serverClient]bool
	register   chan *serverClient
	unregister chan *serverClient
	publish    chan []byte
}

// NewHub builds a Hub. Call Run in its own goroutine before serving.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*serverClient]bool),
		register:   make(chan *serverClient),
		unregister: make(chan *serverClient),
		publish:    make(chan []byte, 256),
	}
}

// Run drives the hub's event loop for the life of the process; Hub has
// no internal stop channel, and cmd/reconciler does not stop it before
// the process exits.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			log.Printf("[eventbus] rm %s connected (%d active)", c.id, len(h.clients))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			log.Printf("[eventbus] rm %s disconnected (%d active)", c.id, n)

		case frame := <-h.publish:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- frame:
				default:
					log.Printf("[eventbus] client send buffer full, dropping connection")
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish enqueues a delta for broadcast to every connected RM. It
// implements session.Emitter when wrapped by HubEmitter.
func (h *Hub) Publish(raw []byte) {
	h.publish <- raw
}

// ServeHTTP upgrades the connection and registers it with the hub. It
// blocks reading (and discarding) frames until the client disconnects,
// since the SR never expects inbound data on this link.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[eventbus] upgrade failed: %v", err)
		return
	}
	c := &serverClient{id: uuid.NewString(), conn: conn, send: make(chan []byte, 256)}
	h.register <- c

	go func() {
		for frame := range c.send {
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Printf("[eventbus] write error: %v", err)
				conn.Close()
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.unregister <- c
			conn.Close()
			return
		}
	}
}
