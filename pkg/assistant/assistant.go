package assistant

import (
	"strings"
	"time"
)

func NewAssistantInput(msgs ...AssistantMessage) AssistantInput {
	return AssistantInput{
		Msgs:   msgs,
		Images: make([]ImagePart, 0),
	}
}

func SystemMessage(content string) AssistantMessage {
	return AssistantMessage{Content: content, CreatedAt: time.Now(), MsgRole: SYSTEM}
}

func UserMessage(content string) AssistantMessage {
	return AssistantMessage{Content: content, CreatedAt: time.Now(), MsgRole: USER}
}

func Temperature(v float64) *float64 {
	return &v
}

// WithImage attaches an image to the request.
func (in AssistantInput) WithImage(mediaType string, data []byte) AssistantInput {
	in.Images = append(in.Images, ImagePart{MediaType: mediaType, Data: data})
	return in
}

// SystemPrompt joins all system messages, for providers that take the system
// instruction out of band.
func (in AssistantInput) SystemPrompt() string {
	parts := make([]string, 0, 1)
	for _, m := range in.Msgs {
		if m.MsgRole == SYSTEM {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

// LastUserIndex is where images get attached; -1 when there is no user turn.
func (in AssistantInput) LastUserIndex() int {
	for i := len(in.Msgs) - 1; i >= 0; i-- {
		if in.Msgs[i].MsgRole == USER {
			return i
		}
	}
	return -1
}

// ImageSubtype turns "image/jpeg" into "jpeg".
func ImageSubtype(mediaType string) string {
	if i := strings.IndexByte(mediaType, '/'); i >= 0 {
		return mediaType[i+1:]
	}
	return mediaType
}
