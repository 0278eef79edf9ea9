package server

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
	"github.com/xpanvictor/somniatrack/internal/config"
	"github.com/xpanvictor/somniatrack/internal/domains/chat"
	"github.com/xpanvictor/somniatrack/internal/domains/session"
	"github.com/xpanvictor/somniatrack/internal/domains/sleep"
	"github.com/xpanvictor/somniatrack/internal/domains/vision"
	"github.com/xpanvictor/somniatrack/internal/observability"
	"github.com/xpanvictor/somniatrack/pkg/Logger"
)

// routes served without an API description
var undocumented = map[string]bool{
	"GET /":             true,
	"GET /metrics":      true,
	"GET /swagger/*any": true,
	"GET /ws/stats":     true,
}

type stubVision struct{}

func (stubVision) Analyze(context.Context, []byte, string) (vision.AnalysisOutcome, error) {
	return vision.AnalysisOutcome{}, nil
}

func (stubVision) Summarize(context.Context, []vision.VisionEvent) (vision.SummaryOutcome, error) {
	return vision.SummaryOutcome{}, nil
}

type stubChat struct{}

func (stubChat) Reply(context.Context, string, chat.Shift) (string, error) { return "", nil }

var ginParam = regexp.MustCompile(`:([A-Za-z_]+)`)

// fullRouteSet mounts every optional service and lists "METHOD /path" in
// swagger notation.
func fullRouteSet(t *testing.T) map[string]bool {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Settings{
		Audio:  config.AudioConfig{MaxUploadMB: 1},
		Vision: config.VisionConfig{MaxFrameMB: 1},
	}
	logger := Logger.Nop()
	metrics := observability.NewMetrics()
	tokens, err := session.NewTokenIssuer("docs-secret", time.Hour)
	require.NoError(t, err)
	manager := session.NewManager(session.ManagerConfig{}, stubVision{}, tokens, metrics, logger)
	t.Cleanup(func() { manager.Close(context.Background()) })

	r := gin.New()
	InitializeRoutes(r, NewServerDependencies(cfg, logger, metrics,
		sleep.NewSleepService(0, metrics, logger), stubVision{}, stubChat{}, manager))

	routes := make(map[string]bool)
	for _, ri := range r.Routes() {
		key := ri.Method + " " + ri.Path
		if undocumented[key] {
			continue
		}
		routes[ri.Method+" "+ginParam.ReplaceAllString(ri.Path, "{$1}")] = true
	}
	return routes
}

func documentedOperations(t *testing.T) map[string]bool {
	t.Helper()
	doc, err := swag.ReadDoc()
	require.NoError(t, err)

	var spec struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc), &spec))

	ops := make(map[string]bool)
	for path, methods := range spec.Paths {
		for method := range methods {
			ops[strings.ToUpper(method)+" "+path] = true
		}
	}
	return ops
}

var routerAnnotation = regexp.MustCompile(`@Router\s+(\S+)\s+\[(\w+)\]`)

func annotatedOperations(t *testing.T) map[string]bool {
	t.Helper()
	files, err := filepath.Glob("../handlers/*.go")
	require.NoError(t, err)
	ws, err := filepath.Glob("../handlers/websocket/*.go")
	require.NoError(t, err)

	ops := make(map[string]bool)
	for _, f := range append(files, ws...) {
		if strings.HasSuffix(f, "_test.go") {
			continue
		}
		src, err := os.ReadFile(f)
		require.NoError(t, err)
		for _, m := range routerAnnotation.FindAllStringSubmatch(string(src), -1) {
			ops[strings.ToUpper(m[2])+" "+m[1]] = true
		}
	}
	require.NotEmpty(t, ops)
	return ops
}

func TestDocs_MatchRoutes(t *testing.T) {
	assert.Equal(t, fullRouteSet(t), documentedOperations(t))
}

func TestDocs_MatchHandlerAnnotations(t *testing.T) {
	assert.Equal(t, annotatedOperations(t), documentedOperations(t),
		"docs are stale, run go generate ./docs")
}
