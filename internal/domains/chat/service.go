package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xpanvictor/somniatrack/internal/constants/prompts"
	"github.com/xpanvictor/somniatrack/pkg/Logger"
	"github.com/xpanvictor/somniatrack/pkg/assistant"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrInvalidShift = errors.New("shift must be day or night")
	ErrChat         = errors.New("chat assistant unavailable")
)

const maxMessageLength = 2000

type Shift string

const (
	ShiftDay   Shift = "day"
	ShiftNight Shift = "night"
)

func ParseShift(s string) (Shift, error) {
	switch Shift(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return "", nil
	case ShiftDay:
		return ShiftDay, nil
	case ShiftNight:
		return ShiftNight, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidShift, s)
}

// ChatService is Luma, the shift-aware sleep tips assistant.
type ChatService interface {
	Reply(ctx context.Context, message string, shift Shift) (string, error)
}

type Config struct {
	Provider string
	Model    string
}

type chatService struct {
	assistant assistant.Assistant
	cfg       Config
	logger    *Logger.Logger
}

// Reply implements ChatService
func (c *chatService) Reply(ctx context.Context, message string, shift Shift) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	if r := []rune(message); len(r) > maxMessageLength {
		message = string(r[:maxMessageLength])
	}

	msgs := []assistant.AssistantMessage{prompts.LUMA_PROMPT.GetCurrentPrompt().ToMessage()}
	if sc := prompts.ShiftContext(string(shift)); sc != "" {
		msgs = append(msgs, assistant.SystemMessage(sc))
	}
	msgs = append(msgs, assistant.UserMessage(message))

	in := assistant.NewAssistantInput(msgs...)
	in.Provider = c.cfg.Provider
	in.Model = c.cfg.Model

	out, err := c.assistant.ProcessPrompt(ctx, in)
	if err != nil {
		c.logger.Warnf("luma reply failed: %v", err)
		return "", fmt.Errorf("%w: %v", ErrChat, err)
	}
	return strings.TrimSpace(out.Response.Content), nil
}

func NewChatService(a assistant.Assistant, cfg Config, logger *Logger.Logger) ChatService {
	return &chatService{
		assistant: a,
		cfg:       cfg,
		logger:    logger,
	}
}
