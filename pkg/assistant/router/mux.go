package router

import (
	"context"
	"fmt"

	"github.com/xpanvictor/somniatrack/pkg/assistant"
)

// DefaultRP honours the input's provider hint and otherwise falls back to a
// fixed provider.
type DefaultRP struct {
	Fallback string
}

func (d *DefaultRP) Select(input assistant.AssistantInput) string {
	if input.Provider != "" {
		return input.Provider
	}
	return d.Fallback
}

func New(fallback string, packs ...AssistantPack) *Mux {
	am := make(map[string]AssistantPack, len(packs))
	for _, p := range packs {
		am[p.Name] = p
	}

	return &Mux{
		RouterPolicy: &DefaultRP{Fallback: fallback},
		AssistantMap: am,
	}
}

// ProcessPrompt implements assistant.Assistant by delegating to the selected
// provider, filling in its default model when the input names none.
func (m *Mux) ProcessPrompt(ctx context.Context, input assistant.AssistantInput) (*assistant.AssistantOutput, error) {
	name := m.RouterPolicy.Select(input)
	pack, ok := m.AssistantMap[name]
	if !ok {
		return nil, fmt.Errorf("%w: no assistant registered as %q", assistant.ErrCompletion, name)
	}
	if input.Model == "" {
		input.Model = pack.DefaultModel
	}
	return pack.Assistant.ProcessPrompt(ctx, input)
}

// Has reports whether a provider is mounted.
func (m *Mux) Has(name string) bool {
	_, ok := m.AssistantMap[name]
	return ok
}
