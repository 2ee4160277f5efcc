package preview

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"camstreamer/internal/logger"
)

const (
	broadcastBuffer = 4
	viewerBuffer    = 4
	writeWait       = time.Second
	defaultPongWait = 60 * time.Second
	viewerReadLimit = 512
)

// viewer owns one websocket connection. Only its writer goroutine writes to conn.
type viewer struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans preview frames out to connected websocket viewers. The viewer set
// is owned by Run; each viewer is written by its own goroutine, so a slow
// viewer only loses its own frames.
type Hub struct {
	clients    map[*websocket.Conn]*viewer
	broadcast  chan []byte
	register   chan *viewer
	unregister chan *websocket.Conn
	done       chan struct{}
	count      atomic.Int32
	dropped    atomic.Int64
	pongWait   time.Duration
	logger     *logger.Logger
}

func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]*viewer),
		broadcast:  make(chan []byte, broadcastBuffer),
		register:   make(chan *viewer),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		pongWait:   defaultPongWait,
		logger:     logger,
	}
}

// Run serves register, unregister and broadcast requests until ctx is done,
// then disconnects every viewer.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for conn, v := range h.clients {
				close(v.send)
				delete(h.clients, conn)
			}
			h.count.Store(0)
			return

		case v := <-h.register:
			h.clients[v.conn] = v
			go h.writePump(v)
			h.logger.Info("Viewer connected. Total: %d", h.count.Add(1))

		case conn := <-h.unregister:
			if v, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				close(v.send)
				h.logger.Info("Viewer disconnected. Total: %d", h.count.Add(-1))
			}

		case message := <-h.broadcast:
			for _, v := range h.clients {
				select {
				case v.send <- message:
				default:
					h.dropped.Add(1)
				}
			}
		}
	}
}

// Serve registers an upgraded connection and reads from it until the viewer
// goes away or stops answering pings.
func (h *Hub) Serve(conn *websocket.Conn) {
	conn.SetReadLimit(viewerReadLimit)
	conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.pongWait))
		return nil
	})

	if !h.join(conn) {
		conn.Close()
		return
	}
	defer h.leave(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.logger.Debug("Viewer read ended: %v", err)
			return
		}
	}
}

// writePump delivers queued frames and keeps the connection alive with pings.
func (h *Hub) writePump(v *viewer) {
	ticker := time.NewTicker(h.pingPeriod())
	defer func() {
		ticker.Stop()
		v.conn.Close()
	}()

	for {
		select {
		case message, ok := <-v.send:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				v.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := v.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Warning("Error sending preview frame: %v", err)
				return
			}

		case <-ticker.C:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.logger.Debug("Viewer ping failed: %v", err)
				return
			}
		}
	}
}

func (h *Hub) pingPeriod() time.Duration {
	return h.pongWait * 9 / 10
}

// join adds a viewer. It returns false when the hub has stopped.
func (h *Hub) join(conn *websocket.Conn) bool {
	v := &viewer{conn: conn, send: make(chan []byte, viewerBuffer)}
	select {
	case h.register <- v:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Broadcast queues a message for all viewers. It never blocks: when the
// queue is full the message is dropped.
func (h *Hub) Broadcast(message []byte) bool {
	select {
	case h.broadcast <- message:
		return true
	default:
		h.dropped.Add(1)
		return false
	}
}

// ClientCount returns the number of connected viewers without touching the viewer set.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Dropped returns how many frames were discarded because the hub or a viewer was busy.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}
