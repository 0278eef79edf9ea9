package handlers

import (
	"github.com/xpanvictor/somniatrack/internal/domains/session"
)

// Response wrapper types for Swagger documentation

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"Something went wrong"`
	Details string `json:"details,omitempty" example:"Validation error details"`
}

// SuccessResponse represents a generic success response
type SuccessResponse struct {
	Message string `json:"message" example:"Operation completed successfully"`
}

// HealthResponse is the liveness body
type HealthResponse struct {
	OK bool `json:"ok" example:"true"`
}

// VersionResponse reports the running build
type VersionResponse struct {
	Version string `json:"version" example:"0.1.0"`
	Env     string `json:"env" example:"dev"`
}

// CreateSessionRequest represents the request body for starting a session
type CreateSessionRequest struct {
	Kind            string `json:"kind" binding:"required" example:"vision"`
	Consent         bool   `json:"consent" example:"true"`
	CaptureInterval int    `json:"capture_interval,omitempty" example:"20"` // seconds
	MaxFrames       int    `json:"max_frames,omitempty" example:"60"`
}

// CreateSessionResponse carries the new session and its bearer token
type CreateSessionResponse struct {
	Session session.View `json:"session"`
	Token   string       `json:"token" example:"eyJhbGciOiJIUzI1NiIs..."`
}

// SessionResponse represents the response for getting a session
type SessionResponse struct {
	Session session.View `json:"session"`
}

// FrameAcceptedResponse is returned once a frame is queued
type FrameAcceptedResponse struct {
	Seq    uint64 `json:"seq" example:"4"`
	Queued int    `json:"queued" example:"2"`
}

// RawResponse carries collaborator output that did not parse
type RawResponse struct {
	Raw string `json:"raw" example:"I cannot tell from this image."`
}

// ChatRequest represents the request body for the tips chatbot
type ChatRequest struct {
	Message string `json:"message" binding:"required" example:"How do I sleep after a night shift?"`
	Shift   string `json:"shift,omitempty" example:"night"`
}

// ChatResponse represents the chatbot reply
type ChatResponse struct {
	Response string `json:"response" example:"Try a dark, cool room and a short wind-down routine."`
}
