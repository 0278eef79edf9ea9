package ollama

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/presbrey/ollamafarm"
	"github.com/xpanvictor/somniatrack/pkg/Logger"
	"github.com/xpanvictor/somniatrack/pkg/assistant"
)

const DefaultModel = "llama3:8b"

type Config struct {
	URLs  []string
	Model string
}

// OllamaProvider spreads prompts over a farm of Ollama servers, picking the
// first one that is online.
type OllamaProvider struct {
	ollamafarm *ollamafarm.Farm
	model      string
}

func New(cfg Config, logger *Logger.Logger) *OllamaProvider {
	farm := ollamafarm.New()

	for _, url := range cfg.URLs {
		if err := farm.RegisterURL(url, nil); err != nil {
			logger.Warnf("ollama: skipping server %s: %v", url, err)
		}
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &OllamaProvider{
		ollamafarm: farm,
		model:      model,
	}
}

func (o *OllamaProvider) Chat(
	ctx context.Context,
	req api.ChatRequest,
	fn api.ChatResponseFunc,
) error {
	ollama := o.ollamafarm.First(&ollamafarm.Where{Offline: false})
	if ollama != nil {
		return ollama.Client().Chat(ctx, &req, fn)
	}
	return fmt.Errorf("no ollama server online for model %v", req.Model)
}

// ProcessPrompt implements assistant.Assistant.
func (o *OllamaProvider) ProcessPrompt(ctx context.Context, input assistant.AssistantInput) (*assistant.AssistantOutput, error) {
	req := BuildChatRequest(o.model, input)

	var b strings.Builder
	var model string
	err := o.Chat(ctx, req, func(cr api.ChatResponse) error {
		b.WriteString(cr.Message.Content)
		model = cr.Model
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", assistant.ErrCompletion, err)
	}
	if b.Len() == 0 {
		return nil, assistant.ErrEmptyResponse
	}

	return &assistant.AssistantOutput{
		Model: model,
		Response: assistant.AssistantMessage{
			Content:   b.String(),
			CreatedAt: time.Now(),
			MsgRole:   assistant.ASSISTANT,
		},
	}, nil
}

// BuildChatRequest maps an assistant input onto a non-streaming ollama chat
// request. Images ride on the last user message.
func BuildChatRequest(defaultModel string, input assistant.AssistantInput) api.ChatRequest {
	model := defaultModel
	if input.Model != "" {
		model = input.Model
	}

	lastUser := input.LastUserIndex()
	msgs := make([]api.Message, 0, len(input.Msgs)+1)
	for i, msg := range input.Msgs {
		m := api.Message{Role: string(msg.MsgRole), Content: msg.Content}
		if i == lastUser {
			m.Images = imageData(input.Images)
		}
		msgs = append(msgs, m)
	}
	if lastUser < 0 && len(input.Images) > 0 {
		msgs = append(msgs, api.Message{Role: string(assistant.USER), Images: imageData(input.Images)})
	}

	stream := false
	req := api.ChatRequest{
		Model:    model,
		Messages: msgs,
		Stream:   &stream,
		Options:  map[string]interface{}{},
	}
	if input.JSONMode {
		req.Format = "json"
	}
	if input.Temperature != nil {
		req.Options["temperature"] = *input.Temperature
	}
	if input.MaxTokens > 0 {
		req.Options["num_predict"] = input.MaxTokens
	}
	return req
}

func imageData(images []assistant.ImagePart) []api.ImageData {
	if len(images) == 0 {
		return nil
	}
	out := make([]api.ImageData, 0, len(images))
	for _, img := range images {
		out = append(out, api.ImageData(img.Data))
	}
	return out
}
