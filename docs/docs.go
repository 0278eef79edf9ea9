// Package docs registers the SomniaTrack API description with swag.
// Regenerate with: go generate ./docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}}}
            }
        },
        "/version": {
            "get": {
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "Service version",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.VersionResponse"}}}
            }
        },
        "/predict": {
            "post": {
                "description": "Estimate asleep/awake from the clip's loudness (RMS). When X-Session-ID and a bearer token are sent, the result is appended to that audio session.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Predict"],
                "summary": "Classify an audio clip",
                "parameters": [
                    {"type": "file", "description": "WAV, FLAC or OGG/Vorbis clip", "name": "audio", "in": "formData", "required": true},
                    {"type": "string", "description": "Audio session to append to", "name": "X-Session-ID", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/sleep.ClassificationResult"}},
                    "400": {"description": "Missing upload", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Invalid session token", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "413": {"description": "Upload too large", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "415": {"description": "Unsupported audio format", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "422": {"description": "Could not decode audio", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/predict/demo": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Predict"],
                "summary": "Demo classification",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/sleep.ClassificationResult"}}}
            }
        },
        "/tips": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Predict"],
                "summary": "Shift-aware sleep tips",
                "parameters": [
                    {"type": "string", "description": "Shift start (HH:MM)", "name": "shift_start", "in": "query", "required": true},
                    {"type": "string", "description": "Shift end (HH:MM)", "name": "shift_end", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/sleep.EquityPlan"}},
                    "400": {"description": "Invalid shift time", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/vision/analyze": {
            "post": {
                "description": "Returns a timestamped observation, or {raw} when the model reply could not be parsed.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Vision"],
                "summary": "Analyze a camera frame",
                "parameters": [{"type": "file", "description": "JPEG or PNG frame", "name": "frame", "in": "formData", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/vision.VisionEvent"}},
                    "415": {"description": "Unsupported image format", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "Vision analysis failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/chat": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Chat"],
                "summary": "Ask the sleep tips chatbot",
                "parameters": [{"description": "Question and optional shift (day|night)", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ChatRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ChatResponse"}},
                    "400": {"description": "Invalid request data", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "Chat assistant unavailable", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/sessions": {
            "post": {
                "description": "Vision sessions need consent=true. capture_interval (seconds) and max_frames are clamped to 5-120 and 10-200.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Start a session",
                "parameters": [{"description": "Session options", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateSessionRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.CreateSessionResponse"}},
                    "400": {"description": "Invalid request data", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Get session",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SessionResponse"}},
                    "404": {"description": "Session not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"SessionToken": []}],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "End a session",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}},
                    "401": {"description": "Invalid session token", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/start": {
            "post": {
                "security": [{"SessionToken": []}],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Start a stopped session",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SessionResponse"}}}
            }
        },
        "/sessions/{id}/stop": {
            "post": {
                "security": [{"SessionToken": []}],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Stop a session",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SessionResponse"}}}
            }
        },
        "/sessions/{id}/reset": {
            "post": {
                "security": [{"SessionToken": []}],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Reset a session",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SessionResponse"}}}
            }
        },
        "/sessions/{id}/frames": {
            "post": {
                "security": [{"SessionToken": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Upload a frame",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"type": "file", "description": "JPEG or PNG frame", "name": "frame", "in": "formData", "required": true}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/handlers.FrameAcceptedResponse"}},
                    "409": {"description": "Session is not running or frame limit reached", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/summary": {
            "get": {
                "description": "Structured summary, or {raw} when the model reply could not be parsed. 404 until a summary exists.",
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Get session summary",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/session.SummaryPayload"}},
                    "404": {"description": "No summary yet", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/summarize": {
            "post": {
                "security": [{"SessionToken": []}],
                "description": "An empty history yields an empty object.",
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Summarize now",
                "parameters": [{"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/session.SummaryPayload"}},
                    "502": {"description": "Summarization failed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/ws": {
            "get": {
                "description": "Upgrade to a websocket. Binary messages are JPEG/PNG frames for the sampler; text messages are control messages. The server pushes status and event messages.",
                "tags": ["Sessions"],
                "summary": "Live session stream",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "Session token", "name": "token", "in": "query", "required": true}
                ],
                "responses": {"101": {"description": "Switching Protocols"}}
            }
        }
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string", "example": "Something went wrong"}, "details": {"type": "string"}}
        },
        "handlers.SuccessResponse": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "handlers.HealthResponse": {
            "type": "object",
            "properties": {"ok": {"type": "boolean", "example": true}}
        },
        "handlers.VersionResponse": {
            "type": "object",
            "properties": {"version": {"type": "string"}, "env": {"type": "string"}}
        },
        "handlers.ChatRequest": {
            "type": "object",
            "required": ["message"],
            "properties": {"message": {"type": "string"}, "shift": {"type": "string", "example": "night"}}
        },
        "handlers.ChatResponse": {
            "type": "object",
            "properties": {"response": {"type": "string"}}
        },
        "handlers.CreateSessionRequest": {
            "type": "object",
            "required": ["kind"],
            "properties": {
                "kind": {"type": "string", "example": "vision"},
                "consent": {"type": "boolean"},
                "capture_interval": {"type": "integer", "example": 20},
                "max_frames": {"type": "integer", "example": 60}
            }
        },
        "handlers.CreateSessionResponse": {
            "type": "object",
            "properties": {"session": {"type": "object"}, "token": {"type": "string"}}
        },
        "handlers.SessionResponse": {
            "type": "object",
            "properties": {"session": {"type": "object"}}
        },
        "handlers.FrameAcceptedResponse": {
            "type": "object",
            "properties": {"seq": {"type": "integer"}, "queued": {"type": "integer"}}
        },
        "sleep.ClassificationResult": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "example": "asleep"},
                "score": {"type": "number", "example": 60},
                "notes": {"type": "string"}
            }
        },
        "sleep.EquityPlan": {
            "type": "object",
            "properties": {
                "shiftStart": {"type": "string"},
                "shiftEnd": {"type": "string"},
                "nightShift": {"type": "boolean"},
                "recoveryWindow": {"type": "object", "properties": {"from": {"type": "string"}, "to": {"type": "string"}}},
                "message": {"type": "string"},
                "tips": {"type": "array", "items": {"type": "string"}}
            }
        },
        "vision.VisionEvent": {
            "type": "object",
            "properties": {
                "timestamp": {"type": "string", "example": "2025-01-01T02:30:00Z"},
                "posture": {"type": "string", "enum": ["supine", "side-left", "side-right", "prone", "sitting", "unknown"]},
                "movement": {"type": "string", "enum": ["none", "minor", "major"]},
                "bed_exit": {"type": "boolean"},
                "light_change": {"type": "string", "enum": ["none", "up", "down", "unknown"]},
                "note": {"type": "string"},
                "confidence": {"type": "number", "example": 0.8}
            }
        },
        "session.SummaryPayload": {
            "type": "object",
            "properties": {
                "summary": {"type": "string"},
                "key_events": {"type": "array", "items": {"type": "string"}},
                "posture_distribution": {"type": "object", "additionalProperties": {"type": "number"}},
                "notable_movements": {"type": "array", "items": {"type": "string"}},
                "recommendations": {"type": "array", "items": {"type": "string"}},
                "raw": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "SessionToken": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "SomniaTrack API",
	Description:      "Sleep estimation from audio loudness and camera frames.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
