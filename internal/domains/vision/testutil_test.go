package vision

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/somniatrack/pkg/assistant"
)

func pngFrame(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage()))
	return buf.Bytes()
}

func jpegFrame(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(), nil))
	return buf.Bytes()
}

func testImage() image.Image {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	img.SetGray(1, 1, color.Gray{Y: 200})
	return img
}

// fakeAssistant replays canned replies and records every input.
type fakeAssistant struct {
	mu      sync.Mutex
	replies []string
	err     error
	inputs  []assistant.AssistantInput
}

func (f *fakeAssistant) ProcessPrompt(ctx context.Context, in assistant.AssistantInput) (*assistant.AssistantOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	reply := ""
	if len(f.replies) > 0 {
		reply = f.replies[0]
		f.replies = f.replies[1:]
	}
	return &assistant.AssistantOutput{Response: assistant.AssistantMessage{Content: reply, MsgRole: assistant.ASSISTANT}}, nil
}

func (f *fakeAssistant) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}
