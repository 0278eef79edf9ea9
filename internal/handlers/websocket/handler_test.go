package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/somniatrack/internal/domains/session"
	"github.com/xpanvictor/somniatrack/internal/domains/vision"
	"github.com/xpanvictor/somniatrack/pkg/Logger"
)

type received struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	SessionID string          `json:"sessionId"`
	Sequence  int             `json:"sequence"`
}

type streamEnv struct {
	server  *httptest.Server
	manager *session.Manager
	handler *StreamHandler
}

func newStreamEnv(t *testing.T) *streamEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := session.NewTokenIssuer("stream-secret", time.Hour)
	require.NoError(t, err)
	// no vision service: sessions get no runner, so the test drives sampling
	manager := session.NewManager(session.ManagerConfig{}, nil, tokens, nil, Logger.Nop())

	h := NewStreamHandler(manager, 1<<20, Logger.Nop())
	r := gin.New()
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		h.Connections().Shutdown()
		srv.Close()
		manager.Close(context.Background())
	})
	return &streamEnv{server: srv, manager: manager, handler: h}
}

func (e *streamEnv) dial(t *testing.T, id, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/sessions/" + id + "/ws?token=" + token
	return websocket.DefaultDialer.Dial(url, nil)
}

func readMessage(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg received
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func statusOf(t *testing.T, msg received) string {
	t.Helper()
	require.Equal(t, MessageTypeStatus, msg.Type)
	var view struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &view))
	return view.Status
}

func sendControl(t *testing.T, conn *websocket.Conn, action string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": MessageTypeControl,
		"data": ControlMessage{Action: action},
	}))
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func TestStream_StatusEventsAndFrames(t *testing.T) {
	env := newStreamEnv(t)
	sess, token, err := env.manager.Start(session.KindVision, session.Options{Consent: true})
	require.NoError(t, err)

	conn, _, err := env.dial(t, sess.ID.String(), token)
	require.NoError(t, err)
	defer conn.Close()

	first := readMessage(t, conn)
	assert.Equal(t, session.StateRunning, statusOf(t, first))
	assert.Equal(t, sess.ID.String(), first.SessionID)
	assert.Equal(t, 1, env.handler.Connections().CountForSession(sess.ID))

	// history growth is pushed
	sess.Append(session.VisionEventEntry(vision.VisionObservation{Posture: vision.PostureSupine}.At(time.Now()), 3))
	ev := readMessage(t, conn)
	require.Equal(t, MessageTypeEvent, ev.Type)
	var entry session.Entry
	require.NoError(t, json.Unmarshal(ev.Data, &entry))
	assert.Equal(t, session.EntryVisionEvent, entry.Kind)
	assert.Equal(t, uint64(3), entry.FrameSeq)
	assert.Greater(t, ev.Sequence, first.Sequence)

	// a binary frame becomes the latest frame for the sampler
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, pngBytes(t)))
	sendControl(t, conn, ActionStatus)
	assert.Equal(t, session.StateRunning, statusOf(t, readMessage(t, conn)))

	frame, ok, err := sess.SampleLatest()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, vision.MediaTypePNG, frame.MediaType)

	// non-image payloads are rejected on the stream
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("not an image")))
	errMsg := readMessage(t, conn)
	require.Equal(t, MessageTypeError, errMsg.Type)
	var e ErrorMessage
	require.NoError(t, json.Unmarshal(errMsg.Data, &e))
	assert.Equal(t, "UNSUPPORTED_FRAME", e.Code)
}

func TestStream_ControlAndEnd(t *testing.T) {
	env := newStreamEnv(t)
	sess, token, err := env.manager.Start(session.KindVision, session.Options{Consent: true})
	require.NoError(t, err)

	conn, _, err := env.dial(t, sess.ID.String(), token)
	require.NoError(t, err)
	defer conn.Close()
	readMessage(t, conn)

	sendControl(t, conn, ActionStop)
	assert.Equal(t, session.StateStopped, statusOf(t, readMessage(t, conn)))

	// frames are refused while stopped
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, pngBytes(t)))
	errMsg := readMessage(t, conn)
	require.Equal(t, MessageTypeError, errMsg.Type)
	assert.Contains(t, string(errMsg.Data), "SESSION_NOT_RUNNING")

	sendControl(t, conn, "dance")
	assert.Equal(t, MessageTypeError, readMessage(t, conn).Type)

	sendControl(t, conn, ActionStart)
	assert.Equal(t, session.StateRunning, statusOf(t, readMessage(t, conn)))

	// ending the session closes the stream after a final status
	require.NoError(t, env.manager.End(context.Background(), sess.ID))
	assert.Equal(t, session.StateEnded, statusOf(t, readMessage(t, conn)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err.Error())
}

func TestStream_Rejections(t *testing.T) {
	env := newStreamEnv(t)
	visionSess, visionToken, err := env.manager.Start(session.KindVision, session.Options{Consent: true})
	require.NoError(t, err)
	audioSess, audioToken, err := env.manager.Start(session.KindAudio, session.Options{})
	require.NoError(t, err)

	_, resp, err := env.dial(t, visionSess.ID.String(), "bad-token")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = env.dial(t, visionSess.ID.String(), audioToken)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = env.dial(t, audioSess.ID.String(), audioToken)
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	_, resp, err = env.dial(t, "nope", visionToken)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStream_Stats(t *testing.T) {
	env := newStreamEnv(t)
	sess, token, err := env.manager.Start(session.KindVision, session.Options{Consent: true})
	require.NoError(t, err)

	conn, _, err := env.dial(t, sess.ID.String(), token)
	require.NoError(t, err)
	defer conn.Close()
	readMessage(t, conn)

	resp, err := http.Get(env.server.URL + "/ws/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Data struct {
			TotalConnections int            `json:"totalConnections"`
			Sessions         map[string]int `json:"sessions"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.Data.TotalConnections)
	assert.Equal(t, 1, body.Data.Sessions[sess.ID.String()])
}
