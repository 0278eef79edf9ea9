package handlers

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/somniatrack/internal/domains/chat"
	"github.com/xpanvictor/somniatrack/internal/domains/session"
	"github.com/xpanvictor/somniatrack/internal/domains/sleep"
	"github.com/xpanvictor/somniatrack/internal/domains/vision"
	"github.com/xpanvictor/somniatrack/pkg/Logger"
)

type fakeVision struct {
	mu         sync.Mutex
	analysis   vision.AnalysisOutcome
	analyzeErr error
	summary    vision.SummaryOutcome
	summaryErr error
	summarized int
}

func (f *fakeVision) Analyze(ctx context.Context, frame []byte, mediaType string) (vision.AnalysisOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.analyzeErr != nil {
		return vision.AnalysisOutcome{}, f.analyzeErr
	}
	return f.analysis, nil
}

func (f *fakeVision) Summarize(ctx context.Context, events []vision.VisionEvent) (vision.SummaryOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summarized++
	if len(events) == 0 {
		return vision.SummaryOutcome{}, nil
	}
	return f.summary, f.summaryErr
}

type fakeChat struct {
	reply string
	err   error
	shift chat.Shift
}

func (f *fakeChat) Reply(ctx context.Context, message string, shift chat.Shift) (string, error) {
	f.shift = shift
	if f.err != nil {
		return "", f.err
	}
	if message == "" {
		return "", chat.ErrEmptyMessage
	}
	return f.reply, nil
}

type testEnv struct {
	router  *gin.Engine
	manager *session.Manager
	vision  *fakeVision
	chat    *fakeChat
}

const testMaxBytes = 1 << 20

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := Logger.Nop()

	tokens, err := session.NewTokenIssuer("handler-secret", time.Hour)
	require.NoError(t, err)

	fv := &fakeVision{
		analysis: vision.AnalysisOutcome{Observation: &vision.VisionObservation{
			Posture:     vision.PostureSupine,
			Movement:    vision.MovementNone,
			LightChange: vision.LightNone,
		}},
		summary: vision.SummaryOutcome{Summary: &vision.SessionSummary{Summary: "Slept soundly."}},
	}
	// consumer effectively idle so queued frames stay put
	manager := session.NewManager(session.ManagerConfig{
		IdleTimeout:     time.Hour,
		QueueBytes:      1 << 20,
		ConsumeInterval: time.Hour,
		BatchSize:       3,
	}, fv, tokens, nil, logger)
	t.Cleanup(func() { manager.Close(context.Background()) })

	fc := &fakeChat{reply: "Keep the room dark."}

	r := gin.New()
	r.Use(ErrorHandlerMiddleware(logger), CORSMiddleware(nil))

	health := NewHealthHandler("9.9.9", "test")
	r.GET("/health", health.Health)
	r.GET("/version", health.Version)

	predict := NewPredictHandler(sleep.NewSleepService(testMaxBytes, nil, logger), manager, testMaxBytes, logger)
	r.POST("/predict", predict.Predict)
	r.GET("/predict/demo", predict.Demo)
	r.GET("/tips", predict.Tips)

	vh := NewVisionHandler(fv, testMaxBytes, logger)
	r.POST("/vision/analyze", vh.Analyze)

	ch := NewChatHandler(fc, logger)
	r.POST("/chat", ch.Chat)

	sh := NewSessionHandler(manager, testMaxBytes, logger)
	r.POST("/sessions", sh.CreateSession)
	r.GET("/sessions/:id", sh.GetSession)
	r.GET("/sessions/:id/summary", sh.GetSummary)
	protected := r.Group("/sessions/:id", SessionAuthMiddleware(manager, logger))
	protected.POST("/start", sh.StartSession)
	protected.POST("/stop", sh.StopSession)
	protected.POST("/reset", sh.ResetSession)
	protected.DELETE("", sh.EndSession)
	protected.POST("/frames", sh.AddFrame)
	protected.POST("/summarize", sh.Summarize)

	return &testEnv{router: r, manager: manager, vision: fv, chat: fc}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartRequest uploads data as the given form field. An empty
// contentType leaves the part as application/octet-stream.
func multipartRequest(t *testing.T, path, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func withToken(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// quietWAV is one second of a constant 0.01 amplitude tone, 16-bit mono.
func quietWAV() []byte {
	const rate = 8000
	var data bytes.Buffer
	for i := 0; i < rate; i++ {
		s := 0.01
		if i%2 == 1 {
			s = -0.01
		}
		_ = binary.Write(&data, binary.LittleEndian, int16(math.Round(s*32767)))
	}

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+data.Len()))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(rate*2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(data.Len()))
	buf.Write(data.Bytes())
	return buf.Bytes()
}

func pngFrame(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	img.SetGray(1, 1, color.Gray{Y: 200})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}
