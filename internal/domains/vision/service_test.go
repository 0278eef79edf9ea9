package vision

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/somniatrack/internal/observability"
	"github.com/xpanvictor/somniatrack/pkg/Logger"
	"github.com/xpanvictor/somniatrack/pkg/assistant"
)

func newTestService(a assistant.Assistant) VisionService {
	return NewVisionService(a, Config{Provider: "openai", Model: "gpt-4o"}, observability.NewMetrics(), Logger.Nop())
}

func TestAnalyze_Event(t *testing.T) {
	fa := &fakeAssistant{replies: []string{`{"posture":"side-left","movement":"minor","bed_exit":false,"light_change":"none","note":"turned slightly","confidence":0.8}`}}
	svc := newTestService(fa)

	out, err := svc.Analyze(context.Background(), jpegFrame(t), "frame.jpg")
	require.NoError(t, err)
	require.NotNil(t, out.Observation)
	assert.Nil(t, out.Raw)
	assert.Equal(t, "turned slightly", out.Observation.Note)

	require.Equal(t, 1, fa.calls())
	in := fa.inputs[0]
	assert.True(t, in.JSONMode)
	assert.Equal(t, 300, in.MaxTokens)
	assert.Equal(t, 0.2, *in.Temperature)
	assert.Equal(t, "openai", in.Provider)
	assert.Equal(t, "gpt-4o", in.Model)
	require.Len(t, in.Images, 1)
	assert.Equal(t, MediaTypeJPEG, in.Images[0].MediaType)
	assert.Equal(t, assistant.SYSTEM, in.Msgs[0].MsgRole)
}

func TestAnalyze_RawFallback(t *testing.T) {
	fa := &fakeAssistant{replies: []string{"I cannot see anyone in the frame."}}
	svc := newTestService(fa)

	out, err := svc.Analyze(context.Background(), pngFrame(t), "")
	require.NoError(t, err)
	assert.Nil(t, out.Observation)
	require.NotNil(t, out.Raw)
	assert.Equal(t, "I cannot see anyone in the frame.", out.Raw.Raw)
}

func TestAnalyze_UnsupportedImageSkipsAssistant(t *testing.T) {
	fa := &fakeAssistant{}
	svc := newTestService(fa)

	_, err := svc.Analyze(context.Background(), []byte("definitely not an image"), "frame.jpg")
	assert.ErrorIs(t, err, ErrUnsupportedImageFormat)
	assert.Zero(t, fa.calls())
}

func TestAnalyze_CollaboratorError(t *testing.T) {
	fa := &fakeAssistant{err: errors.New("connection refused")}
	svc := newTestService(fa)

	_, err := svc.Analyze(context.Background(), pngFrame(t), "")
	assert.ErrorIs(t, err, ErrAnalysis)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSummarize_EmptyShortCircuits(t *testing.T) {
	fa := &fakeAssistant{}
	svc := newTestService(fa)

	out, err := svc.Summarize(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, out.IsZero())
	assert.Zero(t, fa.calls())
}

func TestSummarize(t *testing.T) {
	fa := &fakeAssistant{replies: []string{`{"summary":"Calm night.","key_events":[],"posture_distribution":{"supine":100},"notable_movements":[],"recommendations":["a","b","c"]}`}}
	svc := newTestService(fa)

	ts := time.Date(2025, 3, 1, 1, 0, 0, 0, time.UTC)
	events := []VisionEvent{
		VisionObservation{Posture: PostureSupine, Movement: MovementNone, Note: "still"}.At(ts),
		VisionObservation{Posture: PostureSideLeft, Movement: MovementMinor, BedExit: true}.At(ts.Add(time.Minute)),
	}

	out, err := svc.Summarize(context.Background(), events)
	require.NoError(t, err)
	require.NotNil(t, out.Summary)
	assert.Equal(t, "Calm night.", out.Summary.Summary)

	in := fa.inputs[0]
	assert.Equal(t, 500, in.MaxTokens)
	assert.Equal(t, 0.3, *in.Temperature)
	assert.Empty(t, in.Images)
	user := in.Msgs[1].Content
	assert.True(t, strings.HasPrefix(user, "Observations by timestamp (iso):\n"))
	assert.Contains(t, user, "2025-03-01T01:00:00Z | posture=supine | movement=none | bed_exit=false | note=still")
	assert.Contains(t, user, "2025-03-01T01:01:00Z | posture=side-left | movement=minor | bed_exit=true | note=")
}

func TestSummarize_RawAndError(t *testing.T) {
	events := []VisionEvent{VisionObservation{Posture: PostureProne}.At(time.Now())}

	svc := newTestService(&fakeAssistant{replies: []string{"Overall a good night."}})
	out, err := svc.Summarize(context.Background(), events)
	require.NoError(t, err)
	require.NotNil(t, out.Raw)
	assert.Equal(t, "Overall a good night.", out.Raw.Raw)

	svc = newTestService(&fakeAssistant{err: errors.New("quota")})
	_, err = svc.Summarize(context.Background(), events)
	assert.ErrorIs(t, err, ErrSummarization)
}

func TestSummarize_WrongRecommendationCountIsRaw(t *testing.T) {
	events := []VisionEvent{VisionObservation{Posture: PostureSupine}.At(time.Now())}
	reply := `{"summary":"Calm night.","recommendations":["dim the lights","keep it cool"]}`

	out, err := newTestService(&fakeAssistant{replies: []string{reply}}).Summarize(context.Background(), events)
	require.NoError(t, err)
	assert.Nil(t, out.Summary)
	require.NotNil(t, out.Raw)
	assert.Equal(t, reply, out.Raw.Raw)
}
