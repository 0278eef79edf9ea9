package app

import (
	"context"
	"fmt"

	"github.com/xpanvictor/somniatrack/internal/config"
	"github.com/xpanvictor/somniatrack/pkg/Logger"
	"github.com/xpanvictor/somniatrack/pkg/assistant"
	"github.com/xpanvictor/somniatrack/pkg/assistant/providers/gemini"
	"github.com/xpanvictor/somniatrack/pkg/assistant/providers/ollama"
	"github.com/xpanvictor/somniatrack/pkg/assistant/router"
)

// Provider names accepted by vision.provider and assistant.chat_provider.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"

	defaultOpenAIModel = "gpt-4o"
)

// LLMRouterFactory mounts every configured provider behind one router.
type LLMRouterFactory struct {
	config *config.Settings
	logger *Logger.Logger
}

func NewLLMRouterFactory(cfg *config.Settings, logger *Logger.Logger) *LLMRouterFactory {
	return &LLMRouterFactory{
		config: cfg,
		logger: logger,
	}
}

// CreateRouter builds the router plus cleanup hooks for providers that hold
// connections. OpenAI is always mounted so that a missing key surfaces as an
// upstream error on use rather than at startup.
func (f *LLMRouterFactory) CreateRouter(ctx context.Context) (*router.Mux, []func() error, error) {
	ac := f.config.Assistant
	var closers []func() error

	if ac.OpenAIAPIKey == "" && ac.OpenAIBaseURL == "" {
		f.logger.Warn("OpenAI API key not configured, vision and chat calls will fail")
	}
	packs := []router.AssistantPack{{
		Name:         ProviderOpenAI,
		DefaultModel: defaultOpenAIModel,
		Assistant: assistant.NewAssistant(assistant.OpenAIConfig{
			APIKey:     ac.OpenAIAPIKey,
			BaseURL:    ac.OpenAIBaseURL,
			Model:      defaultOpenAIModel,
			MaxRetries: ac.MaxRetries,
			Timeout:    ac.Timeout,
		}),
	}}

	if ac.GeminiAPIKey != "" {
		gp, err := gemini.New(ctx, gemini.Config{APIKey: ac.GeminiAPIKey, Model: ac.GeminiModel})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Gemini provider: %w", err)
		}
		packs = append(packs, router.AssistantPack{Name: ProviderGemini, DefaultModel: ac.GeminiModel, Assistant: gp})
		closers = append(closers, gp.Close)
	}

	if len(ac.OllamaURLs) > 0 {
		op := ollama.New(ollama.Config{URLs: ac.OllamaURLs, Model: ac.OllamaModel}, f.logger.Named("ollama"))
		packs = append(packs, router.AssistantPack{Name: ProviderOllama, DefaultModel: ac.OllamaModel, Assistant: op})
	}

	mux := router.New(ProviderOpenAI, packs...)
	for _, want := range []string{f.config.Vision.Provider, ac.ChatProvider} {
		if want != "" && !mux.Has(want) {
			return nil, nil, fmt.Errorf("provider %q is selected but not configured", want)
		}
	}

	f.logger.Infof("LLM router created with %d provider(s)", len(packs))
	return mux, closers, nil
}
