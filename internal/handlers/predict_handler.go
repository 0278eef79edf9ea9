package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xpanvictor/somniatrack/internal/domains/session"
	"github.com/xpanvictor/somniatrack/internal/domains/sleep"
	"github.com/xpanvictor/somniatrack/pkg/Logger"
)

const SessionHeader = "X-Session-ID"

// PredictHandler serves the audio classifier and the shift tips
type PredictHandler struct {
	sleepService sleep.SleepService
	sessions     *session.Manager
	maxBytes     int64
	logger       *Logger.Logger
}

func NewPredictHandler(
	sleepService sleep.SleepService,
	sessions *session.Manager,
	maxBytes int64,
	logger *Logger.Logger,
) *PredictHandler {
	return &PredictHandler{
		sleepService: sleepService,
		sessions:     sessions,
		maxBytes:     maxBytes,
		logger:       logger,
	}
}

// Predict classifies an uploaded audio clip
// @Summary Classify an audio clip
// @Description Estimate asleep/awake from the clip's loudness (RMS). When X-Session-ID and a bearer token are sent, the result is appended to that audio session.
// @Tags Predict
// @Accept multipart/form-data
// @Produce json
// @Param audio formData file true "WAV, FLAC or OGG/Vorbis clip"
// @Param X-Session-ID header string false "Audio session to append to"
// @Success 200 {object} sleep.ClassificationResult
// @Failure 400 {object} ErrorResponse "Missing upload"
// @Failure 401 {object} ErrorResponse "Invalid session token"
// @Failure 409 {object} ErrorResponse "Session is not running"
// @Failure 413 {object} ErrorResponse "Upload too large"
// @Failure 415 {object} ErrorResponse "Unsupported audio format"
// @Failure 422 {object} ErrorResponse "Could not decode audio"
// @Router /predict [post]
func (h *PredictHandler) Predict(c *gin.Context) {
	sess, ok := h.targetSession(c)
	if !ok {
		return
	}

	data, filename, err := readUpload(c, "audio", h.maxBytes)
	if err != nil {
		respondError(c, h.logger, "predict", err)
		return
	}

	result, err := h.sleepService.Analyze(c.Request.Context(), filename, data)
	if err != nil {
		respondError(c, h.logger, "predict", err)
		return
	}

	if sess != nil {
		if _, err := sess.AppendClassification(*result); err != nil {
			respondError(c, h.logger, "predict", err)
			return
		}
	}

	c.JSON(http.StatusOK, result)
}

// targetSession resolves the optional audio session named by X-Session-ID.
// It writes the error response itself and reports false on failure.
func (h *PredictHandler) targetSession(c *gin.Context) (*session.SessionContext, bool) {
	raw := c.GetHeader(SessionHeader)
	if raw == "" || h.sessions == nil {
		return nil, true
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid session ID", Details: err.Error()})
		return nil, false
	}
	if err := h.sessions.Tokens().Authorize(bearerToken(c), id); err != nil {
		respondError(c, h.logger, "predict", err)
		return nil, false
	}
	sess, err := h.sessions.Get(id)
	if err != nil {
		respondError(c, h.logger, "predict", err)
		return nil, false
	}
	sess.Touch()
	return sess, true
}

// Demo returns the canned demo-mode result
// @Summary Demo classification
// @Tags Predict
// @Produce json
// @Success 200 {object} sleep.ClassificationResult
// @Router /predict/demo [get]
func (h *PredictHandler) Demo(c *gin.Context) {
	c.JSON(http.StatusOK, h.sleepService.Demo(c.Request.Context()))
}

// Tips returns the recovery window and equity tips for a shift
// @Summary Shift-aware sleep tips
// @Tags Predict
// @Produce json
// @Param shift_start query string true "Shift start (HH:MM)"
// @Param shift_end query string true "Shift end (HH:MM)"
// @Success 200 {object} sleep.EquityPlan
// @Failure 400 {object} ErrorResponse "Invalid shift time"
// @Router /tips [get]
func (h *PredictHandler) Tips(c *gin.Context) {
	plan, err := h.sleepService.Tips(c.Request.Context(), c.Query("shift_start"), c.Query("shift_end"))
	if err != nil {
		respondError(c, h.logger, "tips", err)
		return
	}
	c.JSON(http.StatusOK, plan)
}
