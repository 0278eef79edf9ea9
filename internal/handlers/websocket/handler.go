package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/xpanvictor/somniatrack/internal/domains/session"
	"github.com/xpanvictor/somniatrack/internal/domains/vision"
	"github.com/xpanvictor/somniatrack/pkg/Logger"
)

// frame bytes plus room for the websocket envelope
const readLimitSlack = 4 << 10

// StreamHandler serves the live session stream: clients push camera frames
// as binary messages and receive history entries as JSON events.
type StreamHandler struct {
	logger            *Logger.Logger
	manager           *session.Manager
	connectionManager *ConnectionManager
	upgrader          websocket.Upgrader
	maxFrameBytes     int64
}

func NewStreamHandler(manager *session.Manager, maxFrameBytes int64, logger *Logger.Logger) *StreamHandler {
	return &StreamHandler{
		logger:            logger,
		manager:           manager,
		connectionManager: NewConnectionManager(logger),
		maxFrameBytes:     maxFrameBytes,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers WebSocket routes
func (h *StreamHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/sessions/:id/ws", h.HandleSessionStream)
	router.GET("/ws/stats", h.HandleStats)
}

func (h *StreamHandler) Connections() *ConnectionManager {
	return h.connectionManager
}

// HandleSessionStream attaches a websocket to a vision session
// @Summary Live session stream
// @Description Upgrade to a websocket. Binary messages are JPEG/PNG frames for the sampler; text messages are {"type":"control","data":{"action":"start|stop|reset|status"}}. The server pushes "status" and "event" messages.
// @Tags Sessions
// @Param id path string true "Session ID"
// @Param token query string true "Session token"
// @Success 101
// @Failure 401 {object} map[string]string "Invalid session token"
// @Failure 404 {object} map[string]string "Session not found"
// @Router /sessions/{id}/ws [get]
func (h *StreamHandler) HandleSessionStream(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID"})
		return
	}

	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	if err := h.manager.Tokens().Authorize(token, id); err != nil {
		h.logger.Debugf("stream token rejected for %s: %v", id, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid session token"})
		return
	}

	sess, err := h.manager.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if sess.Kind != session.KindVision {
		c.JSON(http.StatusConflict, gin.H{"error": "Streaming is only available for vision sessions"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("websocket upgrade failed: %v", err)
		return
	}
	if h.maxFrameBytes > 0 {
		conn.SetReadLimit(h.maxFrameBytes + readLimitSlack)
	}

	client := NewClient(sess.ID, conn)
	h.connectionManager.RegisterConnection(client)
	defer h.connectionManager.UnregisterConnection(client.ID)

	entries, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	if err := client.SendWebSocketMessage(MessageTypeStatus, sess.View()); err != nil {
		h.logger.Debugf("initial status to %s failed: %v", client.ID, err)
		return
	}

	go h.forwardEntries(client, sess, entries)
	h.handleConnection(c.Request.Context(), client, sess)
}

// forwardEntries pushes history entries until the subscription closes,
// which happens when the session ends.
func (h *StreamHandler) forwardEntries(client *Client, sess *session.SessionContext, entries <-chan session.Entry) {
	for entry := range entries {
		if err := client.SendWebSocketMessage(MessageTypeEvent, entry); err != nil {
			h.logger.Debugf("event push to %s failed: %v", client.ID, err)
			return
		}
	}
	if sess.Ended() {
		_ = client.SendWebSocketMessage(MessageTypeStatus, sess.View())
		_ = client.Close(websocket.CloseNormalClosure, "session ended")
	}
}

// handleConnection is the read loop
func (h *StreamHandler) handleConnection(ctx context.Context, client *Client, sess *session.SessionContext) {
	for {
		messageType, data, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && client.IsAlive() {
				h.logger.Warnf("websocket read error on %s: %v", client.ID, err)
			} else {
				h.logger.Infof("stream client %s disconnected", client.ID)
			}
			return
		}
		client.Touch()

		switch messageType {
		case websocket.BinaryMessage:
			h.handleFrame(client, sess, data)
		case websocket.TextMessage:
			h.handleTextMessage(ctx, client, sess, data)
		}
	}
}

func (h *StreamHandler) handleFrame(client *Client, sess *session.SessionContext, data []byte) {
	mediaType, err := vision.DetectImage(data, "")
	if err != nil {
		_ = client.SendError("UNSUPPORTED_FRAME", err.Error())
		return
	}
	if err := sess.PushLatest(data, mediaType, time.Now()); err != nil {
		_ = client.SendError(errorCode(err), err.Error())
	}
}

func (h *StreamHandler) handleTextMessage(ctx context.Context, client *Client, sess *session.SessionContext, data []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		_ = client.SendError("INVALID_MESSAGE", "Invalid message format")
		return
	}

	if msg.Type != MessageTypeControl {
		_ = client.SendError("UNKNOWN_MESSAGE_TYPE", fmt.Sprintf("Unknown message type: %s", msg.Type))
		return
	}

	var control ControlMessage
	if err := json.Unmarshal(msg.Data, &control); err != nil {
		_ = client.SendError("INVALID_MESSAGE", "Invalid control payload")
		return
	}

	var opErr error
	switch control.Action {
	case ActionStart:
		opErr = sess.Start(ctx)
	case ActionStop:
		opErr = sess.Stop(ctx)
	case ActionReset:
		opErr = sess.Reset()
	case ActionStatus:
	default:
		_ = client.SendError("UNKNOWN_ACTION", fmt.Sprintf("Unknown action: %s", control.Action))
		return
	}
	if opErr != nil {
		_ = client.SendError(errorCode(opErr), opErr.Error())
		return
	}
	_ = client.SendWebSocketMessage(MessageTypeStatus, sess.View())
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, session.ErrSessionEnded):
		return "SESSION_ENDED"
	case errors.Is(err, session.ErrSessionNotRunning):
		return "SESSION_NOT_RUNNING"
	case errors.Is(err, session.ErrFrameLimit):
		return "FRAME_LIMIT"
	case errors.Is(err, session.ErrInvalidTransition):
		return "INVALID_TRANSITION"
	}
	return "SESSION_ERROR"
}

// HandleStats provides connection statistics
func (h *StreamHandler) HandleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"data":   h.connectionManager.GetStats(),
	})
}
