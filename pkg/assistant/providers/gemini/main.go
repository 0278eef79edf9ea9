package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/xpanvictor/somniatrack/pkg/assistant"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-1.5-flash-latest"

type Config struct {
	APIKey string
	Model  string
}

// GeminiProvider answers assistant prompts, images included, through the
// Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// New creates a new GeminiProvider instance.
func New(ctx context.Context, cfg Config) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is not configured")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini API client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &GeminiProvider{
		client: client,
		model:  model,
	}, nil
}

// ProcessPrompt implements assistant.Assistant.
func (gp *GeminiProvider) ProcessPrompt(ctx context.Context, input assistant.AssistantInput) (*assistant.AssistantOutput, error) {
	if gp.client == nil {
		return nil, fmt.Errorf("%w: gemini client is not initialized", assistant.ErrCompletion)
	}

	name := gp.model
	if input.Model != "" {
		name = input.Model
	}
	model := gp.GetModel(name)
	configureModel(model, input)

	history, last := splitTurns(input)
	cs := model.StartChat()
	cs.History = history

	resp, err := cs.SendMessage(ctx, last...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", assistant.ErrCompletion, err)
	}

	text := responseText(resp)
	if text == "" {
		return nil, assistant.ErrEmptyResponse
	}

	return &assistant.AssistantOutput{
		Model: name,
		Response: assistant.AssistantMessage{
			Content:   text,
			CreatedAt: time.Now(),
			MsgRole:   assistant.ASSISTANT,
		},
	}, nil
}

func configureModel(model *genai.GenerativeModel, input assistant.AssistantInput) {
	if sys := input.SystemPrompt(); sys != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(sys))
	}
	if input.JSONMode {
		model.ResponseMIMEType = "application/json"
	}
	if input.Temperature != nil {
		model.SetTemperature(float32(*input.Temperature))
	}
	if input.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(input.MaxTokens))
	}
}

// splitTurns turns everything before the last user message into chat history
// and returns the parts of the turn to send, images included.
func splitTurns(input assistant.AssistantInput) ([]*genai.Content, []genai.Part) {
	lastUser := input.LastUserIndex()

	history := make([]*genai.Content, 0, len(input.Msgs))
	for i, msg := range input.Msgs {
		if msg.MsgRole == assistant.SYSTEM || i == lastUser {
			continue
		}
		role := "user"
		if msg.MsgRole == assistant.ASSISTANT {
			role = "model"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(msg.Content)}})
	}

	parts := make([]genai.Part, 0, len(input.Images)+1)
	if lastUser >= 0 && input.Msgs[lastUser].Content != "" {
		parts = append(parts, genai.Text(input.Msgs[lastUser].Content))
	}
	for _, img := range input.Images {
		parts = append(parts, genai.ImageData(assistant.ImageSubtype(img.MediaType), img.Data))
	}
	return history, parts
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		// first candidate only
		break
	}
	return b.String()
}

func (gp *GeminiProvider) GetModel(modelName string) *genai.GenerativeModel {
	return gp.client.GenerativeModel(modelName)
}

func (gp *GeminiProvider) Close() error {
	return gp.client.Close()
}
