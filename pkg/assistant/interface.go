package assistant

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCompletion    = errors.New("completion failed")
	ErrEmptyResponse = errors.New("completion returned no content")
)

type Role string

const (
	USER      Role = "user"
	ASSISTANT Role = "assistant"
	SYSTEM    Role = "system"
)

type AssistantMessage struct {
	Content   string
	CreatedAt time.Time
	MsgRole   Role
}

// ImagePart is an inline image sent alongside the last user message.
type ImagePart struct {
	MediaType string
	Data      []byte
}

type AssistantInput struct {
	Msgs   []AssistantMessage
	Images []ImagePart
	// Provider optionally routes the request when several assistants are
	// mounted behind a router.
	Provider string
	// Model overrides the provider's configured model.
	Model string
	// JSONMode asks the provider for a single JSON object.
	JSONMode    bool
	Temperature *float64
	MaxTokens   int
}

type AssistantOutput struct {
	Id       string
	Model    string
	Response AssistantMessage
}

type Assistant interface {
	ProcessPrompt(ctx context.Context, input AssistantInput) (*AssistantOutput, error)
}
