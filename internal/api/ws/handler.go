package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/procheck/sessiond/internal/domain/tabs"
	"github.com/procheck/sessiond/internal/events"
	"github.com/procheck/sessiond/internal/infrastructure/logging"
	"github.com/procheck/sessiond/internal/infrastructure/monitoring"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler pushes workspace events to connected clients and accepts
// the interactive commands (send, retry, switch) over the same socket.
type Handler struct {
	manager *tabs.Manager
	bus     *events.Bus
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewHandler creates a WebSocket handler.
func NewHandler(manager *tabs.Manager, bus *events.Bus, logger *logging.Logger, metrics *monitoring.Metrics) *Handler {
	return &Handler{
		manager: manager,
		bus:     bus,
		logger:  logger,
		metrics: metrics,
	}
}

type clientMessage struct {
	Type      string `json:"type"`
	TabID     string `json:"tab_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
	Content   string `json:"content,omitempty"`
}

// HandleConnection upgrades the request and runs the connection until
// the client goes away.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
		defer h.metrics.WSConnections.Dec()
	}

	eventCh, unsubscribe := h.bus.Subscribe()
	defer unsubscribe()

	// The event pump and the command loop share the connection, and
	// gorilla permits one concurrent writer.
	client := &safeConn{conn: conn}

	client.send(gin.H{
		"type":    "system",
		"message": "connected",
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for event := range eventCh {
			if err := client.send(gin.H{
				"type":      "event",
				"event":     event,
				"timestamp": time.Now().Unix(),
			}); err != nil {
				return
			}
		}
	}()

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}

		switch msg.Type {
		case "send":
			messageID, ok := h.manager.SendMessage(msg.TabID, msg.Content)
			if !ok {
				client.sendError("tab not found or not a chat tab")
				continue
			}
			client.send(gin.H{"type": "accepted", "message_id": messageID})
		case "retry":
			if !h.manager.RetryMessage(msg.MessageID) {
				client.sendError("message not awaiting retry")
				continue
			}
			client.send(gin.H{"type": "accepted", "message_id": msg.MessageID})
		case "switch":
			h.manager.SwitchTab(msg.TabID)
		case "ping":
			client.send(gin.H{"type": "pong"})
		default:
			client.sendError("unknown message type")
		}
	}

	unsubscribe()
	<-done
}

type safeConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *safeConn) send(data interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(data)
}

func (s *safeConn) sendError(msg string) error {
	return s.send(gin.H{
		"type":      "error",
		"message":   msg,
		"timestamp": time.Now().Unix(),
	})
}
