package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xpanvictor/somniatrack/internal/domains/chat"
	"github.com/xpanvictor/somniatrack/internal/domains/session"
	"github.com/xpanvictor/somniatrack/internal/domains/sleep"
	"github.com/xpanvictor/somniatrack/internal/domains/vision"
	"github.com/xpanvictor/somniatrack/pkg/Logger"
	framering "github.com/xpanvictor/somniatrack/pkg/io/frameRing"
)

var (
	errMissingUpload = errors.New("missing upload")
	errUploadTooBig  = errors.New("upload exceeds size limit")
)

const sessionKey = "session"

type statusRule struct {
	err    error
	status int
	msg    string
}

// domain errors in match order
var statusRules = []statusRule{
	{session.ErrSessionNotFound, http.StatusNotFound, "Session not found"},
	{session.ErrSessionEnded, http.StatusGone, "Session has ended"},
	{session.ErrSessionNotRunning, http.StatusConflict, "Session is not running"},
	{session.ErrInvalidTransition, http.StatusConflict, "Invalid session transition"},
	{session.ErrWrongSessionKind, http.StatusConflict, "Operation not supported for this session kind"},
	{session.ErrFrameLimit, http.StatusConflict, "Session frame limit reached"},
	{session.ErrConsentRequired, http.StatusBadRequest, "Camera consent is required"},
	{session.ErrInvalidKind, http.StatusBadRequest, "Invalid session kind"},
	{session.ErrInvalidToken, http.StatusUnauthorized, "Invalid session token"},
	{framering.ErrFrameTooLarge, http.StatusRequestEntityTooLarge, "Frame too large for session queue"},
	{errUploadTooBig, http.StatusRequestEntityTooLarge, "Upload too large"},
	{sleep.ErrAudioTooLarge, http.StatusRequestEntityTooLarge, "Audio upload too large"},
	{errMissingUpload, http.StatusBadRequest, "Missing upload"},
	{sleep.ErrUnsupportedFormat, http.StatusUnsupportedMediaType, "Unsupported audio format"},
	{sleep.ErrDecode, http.StatusUnprocessableEntity, "Could not decode audio"},
	{sleep.ErrEmptyAudio, http.StatusUnprocessableEntity, "Audio contains no samples"},
	{sleep.ErrInvalidShift, http.StatusBadRequest, "Invalid shift time"},
	{vision.ErrUnsupportedImageFormat, http.StatusUnsupportedMediaType, "Unsupported image format"},
	{vision.ErrAnalysis, http.StatusBadGateway, "Vision analysis failed"},
	{vision.ErrSummarization, http.StatusBadGateway, "Summarization failed"},
	{chat.ErrEmptyMessage, http.StatusBadRequest, "Message is empty"},
	{chat.ErrInvalidShift, http.StatusBadRequest, "Invalid shift"},
	{chat.ErrChat, http.StatusBadGateway, "Chat assistant unavailable"},
}

// errorStatus maps a domain error onto an HTTP status and public message.
func errorStatus(err error) (int, string) {
	for _, r := range statusRules {
		if errors.Is(err, r.err) {
			return r.status, r.msg
		}
	}
	return http.StatusInternalServerError, "Internal server error"
}

func respondError(c *gin.Context, logger *Logger.Logger, op string, err error) {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("%s error: %v", op, err)
	} else {
		logger.Debugf("%s rejected: %v", op, err)
	}

	resp := ErrorResponse{Error: msg}
	if status < http.StatusInternalServerError {
		resp.Details = err.Error()
	}
	c.JSON(status, resp)
}

// readUpload reads a multipart file field, refusing anything above max
// bytes when max is positive.
func readUpload(c *gin.Context, field string, max int64) ([]byte, string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("%w: field %q", errMissingUpload, field)
	}
	if max > 0 && fh.Size > max {
		return nil, "", fmt.Errorf("%w: %d bytes (max %d)", errUploadTooBig, fh.Size, max)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var r io.Reader = f
	if max > 0 {
		r = io.LimitReader(f, max+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", err
	}
	if max > 0 && int64(len(data)) > max {
		return nil, "", fmt.Errorf("%w: more than %d bytes", errUploadTooBig, max)
	}
	return data, fh.Filename, nil
}

// declaredImage picks what the client claimed a file part to be: its image
// Content-Type, else its filename when that has an extension. Generic parts
// (application/octet-stream, "blob") declare nothing and are only sniffed.
func declaredImage(c *gin.Context, field, filename string) string {
	if fh, err := c.FormFile(field); err == nil {
		if ct := fh.Header.Get("Content-Type"); strings.HasPrefix(ct, "image/") {
			return ct
		}
	}
	if filepath.Ext(filename) != "" {
		return filename
	}
	return ""
}

// bearerToken reads the token from the Authorization header, falling back
// to ?token= for clients that cannot set headers.
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return c.Query("token")
}

func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid session ID", Details: err.Error()})
		return uuid.Nil, false
	}
	return id, true
}

// SessionFromContext returns the session loaded by SessionAuthMiddleware.
func SessionFromContext(c *gin.Context) (*session.SessionContext, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*session.SessionContext)
	return sess, ok
}
