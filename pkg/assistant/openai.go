package assistant

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	MaxRetries int
	Timeout    time.Duration
}

type openAIAssistant struct {
	client openai.Client
	model  string
}

// ProcessPrompt implements Assistant.
func (o openAIAssistant) ProcessPrompt(
	ctx context.Context,
	input AssistantInput,
) (*AssistantOutput, error) {
	model := o.model
	if input.Model != "" {
		model = input.Model
	}

	params := openai.ChatCompletionNewParams{
		Messages: convertToOpenaiMsgs(input),
		Model:    openai.ChatModel(model),
	}
	if input.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}
	if input.Temperature != nil {
		params.Temperature = openai.Float(*input.Temperature)
	}
	if input.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(input.MaxTokens))
	}

	chatCompletion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompletion, err)
	}
	if len(chatCompletion.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	return &AssistantOutput{
		Id:    chatCompletion.ID,
		Model: chatCompletion.Model,
		Response: AssistantMessage{
			Content:   chatCompletion.Choices[0].Message.Content,
			CreatedAt: time.Now(),
			MsgRole:   ASSISTANT,
		},
	}, nil
}

func convertToOpenaiMsgs(input AssistantInput) []openai.ChatCompletionMessageParamUnion {
	imageAt := -1
	if len(input.Images) > 0 {
		imageAt = input.LastUserIndex()
	}

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(input.Msgs)+1)
	for i, msg := range input.Msgs {
		if i == imageAt {
			msgs = append(msgs, userMsgWithImages(msg.Content, input.Images))
			continue
		}
		msgs = append(msgs, convertToOpenaiMsg(msg))
	}
	// images without any user turn still need a carrier
	if imageAt < 0 && len(input.Images) > 0 {
		msgs = append(msgs, userMsgWithImages("", input.Images))
	}
	return msgs
}

func userMsgWithImages(text string, images []ImagePart) openai.ChatCompletionMessageParamUnion {
	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(images)+1)
	if text != "" {
		parts = append(parts, openai.TextContentPart(text))
	}
	for _, img := range images {
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
			URL: DataURL(img),
		}))
	}
	return openai.UserMessage(parts)
}

func convertToOpenaiMsg(msg AssistantMessage) openai.ChatCompletionMessageParamUnion {
	switch msg.MsgRole {
	case ASSISTANT:
		return openai.AssistantMessage(msg.Content)
	case USER:
		return openai.UserMessage(msg.Content)
	case SYSTEM:
		return openai.SystemMessage(msg.Content)
	}
	return openai.UserMessage(msg.Content)
}

// DataURL renders an image as a base64 data URL.
func DataURL(img ImagePart) string {
	return fmt.Sprintf("data:%s;base64,%s", img.MediaType, base64.StdEncoding.EncodeToString(img.Data))
}

func NewAssistant(cfg OpenAIConfig) Assistant {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	model := cfg.Model
	if model == "" {
		model = string(openai.ChatModelGPT4o)
	}

	return openAIAssistant{
		client: openai.NewClient(opts...),
		model:  model,
	}
}
