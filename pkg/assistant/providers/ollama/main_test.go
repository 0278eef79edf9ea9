package ollama

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/somniatrack/pkg/assistant"
)

func TestBuildChatRequest(t *testing.T) {
	in := assistant.NewAssistantInput(
		assistant.SystemMessage("you are Luma"),
		assistant.UserMessage("what does this frame show?"),
	).WithImage("image/png", []byte{1, 2, 3})
	in.JSONMode = true
	in.Temperature = assistant.Temperature(0.2)
	in.MaxTokens = 300

	req := BuildChatRequest(DefaultModel, in)

	assert.Equal(t, DefaultModel, req.Model)
	require.NotNil(t, req.Stream)
	assert.False(t, *req.Stream)
	assert.EqualValues(t, "json", req.Format)
	assert.Equal(t, 0.2, req.Options["temperature"])
	assert.Equal(t, 300, req.Options["num_predict"])

	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Empty(t, req.Messages[0].Images)
	require.Len(t, req.Messages[1].Images, 1)
	assert.Equal(t, []byte{1, 2, 3}, []byte(req.Messages[1].Images[0]))
}

func TestBuildChatRequest_ImagesWithoutUserTurn(t *testing.T) {
	in := assistant.NewAssistantInput(assistant.SystemMessage("sys")).WithImage("image/jpeg", []byte{9})
	in.Model = "llava"

	req := BuildChatRequest(DefaultModel, in)

	assert.Equal(t, "llava", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "user", req.Messages[1].Role)
	assert.Len(t, req.Messages[1].Images, 1)
	assert.Empty(t, req.Format)
}
