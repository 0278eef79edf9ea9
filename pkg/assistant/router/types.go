package router

import "github.com/xpanvictor/somniatrack/pkg/assistant"

type AssistantPack struct {
	Assistant    assistant.Assistant
	Name         string
	DefaultModel string
}

type Mux struct {
	RouterPolicy RoutePolicy
	AssistantMap map[string]AssistantPack
}

type RoutePolicy interface {
	Select(input assistant.AssistantInput) string
}
