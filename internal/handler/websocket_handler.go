// internal/handler/websocket_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"kiosk-client/internal/config"
	"kiosk-client/internal/model"
	"kiosk-client/internal/utils"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// StatusStreamHandler streams printer status events to the kiosk page over
// a websocket
type StatusStreamHandler struct {
	upgrader    websocket.Upgrader
	connections *ConnectionManager
	device      SnapshotProvider
	logger      *utils.ServiceLogger
}

// NewStatusStreamHandler creates a new status stream handler
func NewStatusStreamHandler(device SnapshotProvider, security *config.SecurityConfig, logger *zap.Logger) *StatusStreamHandler {
	allowed := security.AllowedOrigins

	return &StatusStreamHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || slices.Contains(allowed, origin)
			},
		},
		connections: NewConnectionManager(),
		device:      device,
		logger:      utils.NewServiceLogger(logger, "status-stream"),
	}
}

// HandleStatusConnection upgrades the request and subscribes the client
// @Summary Printer status stream
// @Description Websocket. Sends initial_status with the printer snapshot, then one printer_status message per status event.
// @Tags Printer
// @Router /ws/status [get]
func (h *StatusStreamHandler) HandleStatusConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}

	client := &Client{
		ID:          uuid.New().String(),
		Connection:  conn,
		Send:        make(chan []byte, 64),
		UserAgent:   c.Request.UserAgent(),
		RemoteAddr:  c.Request.RemoteAddr,
		ConnectedAt: time.Now(),
	}

	h.connections.Register(client)
	h.logger.Info("Status stream client connected",
		zap.String("client_id", client.ID),
		zap.String("remote_addr", client.RemoteAddr),
	)

	h.sendMessage(client, &WebSocketMessage{
		Type:      MessageTypeInitialStatus,
		Data:      h.device.Snapshot(),
		Timestamp: time.Now(),
	})

	go h.handleClientRead(client)
	go h.handleClientWrite(client)
}

// Publish broadcasts a status event to every connected client
func (h *StatusStreamHandler) Publish(event model.StatusEvent) {
	message, err := json.Marshal(&WebSocketMessage{
		Type:      MessageTypePrinterStatus,
		Data:      event,
		Timestamp: time.Now(),
	})
	if err != nil {
		h.logger.Error("Failed to marshal status message", zap.Error(err))
		return
	}

	if skipped := h.connections.Broadcast(message); skipped > 0 {
		h.logger.Warn("Status stream clients too slow, message skipped", zap.Int("clients", skipped))
	}
}

// Close disconnects every client
func (h *StatusStreamHandler) Close() {
	h.connections.CloseAll()
}

// GetConnectionStats returns connection statistics
func (h *StatusStreamHandler) GetConnectionStats() *ConnectionStats {
	return h.connections.GetStats()
}

// handleClientRead answers pings and detects disconnects
func (h *StatusStreamHandler) handleClientRead(client *Client) {
	defer func() {
		h.connections.Unregister(client)
		client.Connection.Close()
	}()

	client.Connection.SetReadDeadline(time.Now().Add(pongWait))
	client.Connection.SetPongHandler(func(string) error {
		client.Connection.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, messageBytes, err := client.Connection.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("WebSocket read error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
			}
			return
		}

		var message WebSocketMessage
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			h.sendError(client, "invalid message")
			continue
		}

		switch message.Type {
		case "ping":
			h.sendMessage(client, &WebSocketMessage{Type: MessageTypePong, Timestamp: time.Now()})
		case "status":
			h.sendMessage(client, &WebSocketMessage{
				Type:      MessageTypeInitialStatus,
				Data:      h.device.Snapshot(),
				Timestamp: time.Now(),
			})
		default:
			h.sendError(client, "unknown message type: "+message.Type)
		}
	}
}

// handleClientWrite drains the client send channel and keeps the link alive
func (h *StatusStreamHandler) handleClientWrite(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Connection.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Connection.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Connection.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.Warn("WebSocket write error",
					zap.Error(err),
					zap.String("client_id", client.ID),
				)
				return
			}

		case <-ticker.C:
			client.Connection.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Connection.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// sendMessage queues a message for one client
func (h *StatusStreamHandler) sendMessage(client *Client, message *WebSocketMessage) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal WebSocket message", zap.Error(err))
		return
	}

	if !h.connections.Send(client, messageBytes) {
		h.logger.Warn("Dropping message for status client",
			zap.String("client_id", client.ID),
		)
	}
}

// sendError sends an error message to a client
func (h *StatusStreamHandler) sendError(client *Client, errorMsg string) {
	h.sendMessage(client, &WebSocketMessage{
		Type: MessageTypeError,
		Data: map[string]interface{}{
			"error": errorMsg,
		},
		Timestamp: time.Now(),
	})
}
