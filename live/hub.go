package live

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/qr-restaurant/models"
	"github.com/yeremiapane/qr-restaurant/services"
	"github.com/yeremiapane/qr-restaurant/utils"
)

// Event types
const (
	EventTableUpdate = "table_update"
	EventOrderUpdate = "order_update"
	EventDashboard   = "dashboard_update"
	EventHello       = "hello"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 16
)

type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type client struct {
	addr string
	send chan []byte
}

// Hub fans out table and order changes to the connected admin dashboards.
// It satisfies services.Notifier and services.StatsSink.
type Hub struct {
	clients map[*websocket.Conn]*client
	mutex   sync.Mutex

	upgrader websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]*client),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Register adds conn and starts its writer. Messages queue per client so a
// slow dashboard never blocks Broadcast.
func (h *Hub) Register(conn *websocket.Conn) {
	c := &client{addr: conn.RemoteAddr().String(), send: make(chan []byte, sendBuffer)}
	h.mutex.Lock()
	h.clients[conn] = c
	h.mutex.Unlock()
	go h.writePump(conn, c)
}

// Unregister drops conn. The writer closes the connection once its queue ends.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.drop(conn)
}

// drop must be called with the mutex held.
func (h *Hub) drop(conn *websocket.Conn) {
	if c, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(c.send)
	}
}

func (h *Hub) writePump(conn *websocket.Conn, c *client) {
	defer conn.Close()
	for data := range c.send {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.WithField("client", c.addr).Warnf("dropping dashboard client: %v", err)
			h.Unregister(conn)
			// Drain so Unregister's close ends the loop.
			for range c.send {
			}
			return
		}
	}
}

// Clients returns the number of connected dashboards.
func (h *Hub) Clients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

func (h *Hub) TableChanged(table models.Table) {
	h.Broadcast(Message{Event: EventTableUpdate, Data: table})
}

func (h *Hub) OrderChanged(order models.Order) {
	h.Broadcast(Message{Event: EventOrderUpdate, Data: order})
}

func (h *Hub) StatsUpdated(stats services.Stats) {
	h.Broadcast(Message{Event: EventDashboard, Data: stats})
}

// Broadcast queues msg for every client. A client whose queue is full is
// dropped.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling %s message: %v", msg.Event, err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn, c := range h.clients {
		select {
		case c.send <- data:
		default:
			utils.ErrorLogger.WithFields(logrus.Fields{
				"client": c.addr,
				"event":  msg.Event,
			}).Warn("dropping dashboard client: send queue full")
			h.drop(conn)
		}
	}
}

// ServeWS upgrades the request and keeps the connection registered until the
// client goes away. Inbound messages are read and discarded.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.ErrorLogger.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(Message{Event: EventHello, Data: "connected"}); err != nil {
		conn.Close()
		return
	}
	h.Register(conn)
	utils.InfoLogger.Printf("Dashboard connected from %s (%d clients)", conn.RemoteAddr(), h.Clients())

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.Unregister(conn)
}
