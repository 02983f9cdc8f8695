package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
)

const (
	writeWait       = 5 * time.Second
	broadcastBuffer = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketManager fans detection events out to every connected dashboard.
// It satisfies notify.Publisher.
type WebSocketManager struct {
	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte
	done       chan struct{}
	mutex      sync.RWMutex
	logger     *slog.Logger
}

func NewWebSocketManager(logger *slog.Logger) *WebSocketManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketManager{
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, broadcastBuffer),
		done:       make(chan struct{}),
		logger:     logger.With("component", "websocket"),
	}
}

// Start runs the hub until ctx is cancelled, then closes every client.
func (wsm *WebSocketManager) Start(ctx context.Context) {
	defer close(wsm.done)
	for {
		select {
		case <-ctx.Done():
			wsm.mutex.Lock()
			for client := range wsm.clients {
				client.Close()
				delete(wsm.clients, client)
			}
			wsm.mutex.Unlock()
			return

		case client := <-wsm.register:
			wsm.mutex.Lock()
			wsm.clients[client] = true
			total := len(wsm.clients)
			wsm.mutex.Unlock()
			wsm.logger.Info("client connected", "total", total)

		case client := <-wsm.unregister:
			wsm.mutex.Lock()
			if _, ok := wsm.clients[client]; ok {
				delete(wsm.clients, client)
				client.Close()
			}
			total := len(wsm.clients)
			wsm.mutex.Unlock()
			wsm.logger.Info("client disconnected", "total", total)

		case message := <-wsm.broadcast:
			wsm.mutex.Lock()
			for client := range wsm.clients {
				_ = client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					wsm.logger.Warn("write to client failed", "error", err)
					client.Close()
					delete(wsm.clients, client)
				}
			}
			wsm.mutex.Unlock()
		}
	}
}

// Clients returns the number of connected dashboards.
func (wsm *WebSocketManager) Clients() int {
	wsm.mutex.RLock()
	defer wsm.mutex.RUnlock()
	return len(wsm.clients)
}

// Publish queues event for broadcast. A full queue drops the event.
func (wsm *WebSocketManager) Publish(ctx context.Context, event domain.DetectionEvent) error {
	message, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("WebSocketManager.Publish: %w", err)
	}

	select {
	case wsm.broadcast <- message:
		return nil
	case <-wsm.done:
		return nil
	default:
		wsm.logger.Warn("broadcast queue full, dropping event", "type", event.Type, "id", event.ID)
		return nil
	}
}

// join hands a connection to the hub. It reports false once the hub stopped.
func (wsm *WebSocketManager) join(conn *websocket.Conn) bool {
	select {
	case wsm.register <- conn:
		return true
	case <-wsm.done:
		return false
	}
}

func (wsm *WebSocketManager) leave(conn *websocket.Conn) {
	select {
	case wsm.unregister <- conn:
	case <-wsm.done:
	}
}

type WebSocketHandler struct {
	wsManager *WebSocketManager
}

func NewWebSocketHandler(wsManager *WebSocketManager) *WebSocketHandler {
	return &WebSocketHandler{wsManager: wsManager}
}

// GET /ws
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.wsManager.logger.Warn("upgrade failed", "error", err)
		return
	}

	if !h.wsManager.join(conn) {
		conn.Close()
		return
	}

	go func() {
		defer h.wsManager.leave(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					h.wsManager.logger.Warn("read from client failed", "error", err)
				}
				return
			}
		}
	}()
}
