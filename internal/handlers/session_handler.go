package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/somniatrack/internal/domains/session"
	"github.com/xpanvictor/somniatrack/internal/domains/vision"
	"github.com/xpanvictor/somniatrack/pkg/Logger"
)

// SessionHandler handles session lifecycle and frame ingestion
type SessionHandler struct {
	manager       *session.Manager
	maxFrameBytes int64
	logger        *Logger.Logger
}

func NewSessionHandler(manager *session.Manager, maxFrameBytes int64, logger *Logger.Logger) *SessionHandler {
	return &SessionHandler{
		manager:       manager,
		maxFrameBytes: maxFrameBytes,
		logger:        logger,
	}
}

// CreateSession starts a new audio or vision session
// @Summary Start a session
// @Description Vision sessions need consent=true. capture_interval (seconds) and max_frames are clamped to 5-120 and 10-200.
// @Tags Sessions
// @Accept json
// @Produce json
// @Param request body CreateSessionRequest true "Session options"
// @Success 201 {object} CreateSessionResponse
// @Failure 400 {object} ErrorResponse "Invalid request data"
// @Router /sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request data",
			Details: err.Error(),
		})
		return
	}

	kind, err := session.ParseKind(req.Kind)
	if err != nil {
		respondError(c, h.logger, "create session", err)
		return
	}

	sess, token, err := h.manager.Start(kind, session.Options{
		Consent:         req.Consent,
		CaptureInterval: time.Duration(req.CaptureInterval) * time.Second,
		MaxFrames:       req.MaxFrames,
	})
	if err != nil {
		respondError(c, h.logger, "create session", err)
		return
	}

	c.JSON(http.StatusCreated, CreateSessionResponse{Session: sess.View(), Token: token})
}

// GetSession returns the session status and history snapshot
// @Summary Get session
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SessionResponse
// @Failure 400 {object} ErrorResponse "Invalid session ID"
// @Failure 404 {object} ErrorResponse "Session not found"
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	sess, err := h.manager.Get(id)
	if err != nil {
		respondError(c, h.logger, "get session", err)
		return
	}
	c.JSON(http.StatusOK, SessionResponse{Session: sess.View()})
}

// StartSession restarts a stopped session with a clean history
// @Summary Start a stopped session
// @Tags Sessions
// @Produce json
// @Security SessionToken
// @Param id path string true "Session ID"
// @Success 200 {object} SessionResponse
// @Failure 401 {object} ErrorResponse "Invalid session token"
// @Failure 410 {object} ErrorResponse "Session has ended"
// @Router /sessions/{id}/start [post]
func (h *SessionHandler) StartSession(c *gin.Context) {
	h.lifecycle(c, "start session", (*session.SessionContext).Start)
}

// StopSession stops capture; queued frames are still analyzed
// @Summary Stop a session
// @Tags Sessions
// @Produce json
// @Security SessionToken
// @Param id path string true "Session ID"
// @Success 200 {object} SessionResponse
// @Failure 401 {object} ErrorResponse "Invalid session token"
// @Failure 410 {object} ErrorResponse "Session has ended"
// @Router /sessions/{id}/stop [post]
func (h *SessionHandler) StopSession(c *gin.Context) {
	h.lifecycle(c, "stop session", (*session.SessionContext).Stop)
}

// ResetSession clears history, errors and summary
// @Summary Reset a session
// @Tags Sessions
// @Produce json
// @Security SessionToken
// @Param id path string true "Session ID"
// @Success 200 {object} SessionResponse
// @Failure 401 {object} ErrorResponse "Invalid session token"
// @Failure 410 {object} ErrorResponse "Session has ended"
// @Router /sessions/{id}/reset [post]
func (h *SessionHandler) ResetSession(c *gin.Context) {
	h.withSession(c, "reset session", func(sess *session.SessionContext) error {
		return sess.Reset()
	})
}

func (h *SessionHandler) lifecycle(c *gin.Context, op string, fn func(*session.SessionContext, context.Context) error) {
	h.withSession(c, op, func(sess *session.SessionContext) error {
		return fn(sess, c.Request.Context())
	})
}

func (h *SessionHandler) withSession(c *gin.Context, op string, fn func(*session.SessionContext) error) {
	sess, ok := SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not authorized"})
		return
	}
	if err := fn(sess); err != nil {
		respondError(c, h.logger, op, err)
		return
	}
	c.JSON(http.StatusOK, SessionResponse{Session: sess.View()})
}

// EndSession ends the session and discards everything it holds
// @Summary End a session
// @Tags Sessions
// @Produce json
// @Security SessionToken
// @Param id path string true "Session ID"
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} ErrorResponse "Invalid session token"
// @Failure 404 {object} ErrorResponse "Session not found"
// @Router /sessions/{id} [delete]
func (h *SessionHandler) EndSession(c *gin.Context) {
	sess, ok := SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not authorized"})
		return
	}
	if err := h.manager.End(c.Request.Context(), sess.ID); err != nil {
		respondError(c, h.logger, "end session", err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Session ended"})
}

// AddFrame queues one camera frame for analysis
// @Summary Upload a frame
// @Tags Sessions
// @Accept multipart/form-data
// @Produce json
// @Security SessionToken
// @Param id path string true "Session ID"
// @Param frame formData file true "JPEG or PNG frame"
// @Success 202 {object} FrameAcceptedResponse
// @Failure 401 {object} ErrorResponse "Invalid session token"
// @Failure 409 {object} ErrorResponse "Session is not running or frame limit reached"
// @Failure 413 {object} ErrorResponse "Upload too large"
// @Failure 415 {object} ErrorResponse "Unsupported image format"
// @Router /sessions/{id}/frames [post]
func (h *SessionHandler) AddFrame(c *gin.Context) {
	sess, ok := SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not authorized"})
		return
	}

	data, filename, err := readUpload(c, "frame", h.maxFrameBytes)
	if err != nil {
		respondError(c, h.logger, "add frame", err)
		return
	}
	mediaType, err := vision.DetectImage(data, declaredImage(c, "frame", filename))
	if err != nil {
		respondError(c, h.logger, "add frame", err)
		return
	}

	frame, err := sess.Enqueue(data, mediaType, time.Now())
	if err != nil {
		respondError(c, h.logger, "add frame", err)
		return
	}
	c.JSON(http.StatusAccepted, FrameAcceptedResponse{Seq: frame.Seq, Queued: sess.QueueLen()})
}

// GetSummary returns the produced summary
// @Summary Get session summary
// @Description Structured summary, or {raw} when the model reply could not be parsed. 404 until a summary exists.
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} session.SummaryPayload
// @Failure 404 {object} ErrorResponse "No summary yet"
// @Router /sessions/{id}/summary [get]
func (h *SessionHandler) GetSummary(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	sess, err := h.manager.Get(id)
	if err != nil {
		respondError(c, h.logger, "get summary", err)
		return
	}

	out, produced := sess.Summary()
	if !produced {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "No summary yet"})
		return
	}
	c.JSON(http.StatusOK, session.NewSummaryPayload(out))
}

// Summarize produces a summary from the events recorded so far
// @Summary Summarize now
// @Description An empty history yields an empty object.
// @Tags Sessions
// @Produce json
// @Security SessionToken
// @Param id path string true "Session ID"
// @Success 200 {object} session.SummaryPayload
// @Failure 401 {object} ErrorResponse "Invalid session token"
// @Failure 409 {object} ErrorResponse "Not a vision session"
// @Failure 502 {object} ErrorResponse "Summarization failed"
// @Router /sessions/{id}/summarize [post]
func (h *SessionHandler) Summarize(c *gin.Context) {
	sess, ok := SessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Session not authorized"})
		return
	}

	out, err := h.manager.Summarize(c.Request.Context(), sess.ID)
	if err != nil {
		respondError(c, h.logger, "summarize", err)
		return
	}

	payload := session.NewSummaryPayload(out)
	if payload == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, payload)
}
