package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/somniatrack/internal/domains/vision"
	"github.com/xpanvictor/somniatrack/pkg/Logger"
)

// VisionHandler serves stateless single-frame analysis
type VisionHandler struct {
	visionService vision.VisionService
	maxBytes      int64
	logger        *Logger.Logger
}

func NewVisionHandler(visionService vision.VisionService, maxBytes int64, logger *Logger.Logger) *VisionHandler {
	return &VisionHandler{
		visionService: visionService,
		maxBytes:      maxBytes,
		logger:        logger,
	}
}

// Analyze describes the sleep state visible in one camera frame
// @Summary Analyze a camera frame
// @Description Returns a timestamped observation, or {raw} when the model reply could not be parsed.
// @Tags Vision
// @Accept multipart/form-data
// @Produce json
// @Param frame formData file true "JPEG or PNG frame"
// @Success 200 {object} vision.VisionEvent
// @Success 200 {object} RawResponse
// @Failure 400 {object} ErrorResponse "Missing upload"
// @Failure 413 {object} ErrorResponse "Upload too large"
// @Failure 415 {object} ErrorResponse "Unsupported image format"
// @Failure 502 {object} ErrorResponse "Vision analysis failed"
// @Router /vision/analyze [post]
func (h *VisionHandler) Analyze(c *gin.Context) {
	data, filename, err := readUpload(c, "frame", h.maxBytes)
	if err != nil {
		respondError(c, h.logger, "vision analyze", err)
		return
	}

	mediaType, err := vision.DetectImage(data, declaredImage(c, "frame", filename))
	if err != nil {
		respondError(c, h.logger, "vision analyze", err)
		return
	}

	out, err := h.visionService.Analyze(c.Request.Context(), data, mediaType)
	if err != nil {
		respondError(c, h.logger, "vision analyze", err)
		return
	}

	if out.Observation != nil {
		c.JSON(http.StatusOK, out.Observation.At(time.Now()))
		return
	}
	c.JSON(http.StatusOK, RawResponse{Raw: out.Raw.Raw})
}
