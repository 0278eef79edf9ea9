package vision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xpanvictor/somniatrack/internal/constants/prompts"
	"github.com/xpanvictor/somniatrack/internal/observability"
	"github.com/xpanvictor/somniatrack/pkg/Logger"
	"github.com/xpanvictor/somniatrack/pkg/assistant"
)

var (
	ErrAnalysis      = errors.New("frame analysis failed")
	ErrSummarization = errors.New("session summarization failed")
)

const (
	analysisTemperature = 0.2
	analysisMaxTokens   = 300
	summaryTemperature  = 0.3
	summaryMaxTokens    = 500
)

// VisionService turns frames into observations and event timelines into
// session summaries through an external assistant.
type VisionService interface {
	Analyze(ctx context.Context, frame []byte, mediaType string) (AnalysisOutcome, error)
	Summarize(ctx context.Context, events []VisionEvent) (SummaryOutcome, error)
}

type Config struct {
	// Provider routes requests when the assistant is a router.Mux.
	Provider string
	Model    string
}

type visionService struct {
	assistant assistant.Assistant
	cfg       Config
	metrics   *observability.Metrics
	logger    *Logger.Logger
}

// Analyze implements VisionService
func (v *visionService) Analyze(ctx context.Context, frame []byte, mediaType string) (AnalysisOutcome, error) {
	detected, err := DetectImage(frame, mediaType)
	if err != nil {
		return AnalysisOutcome{}, err
	}

	in := v.input(prompts.FRAME_ANALYSIS_PROMPT, prompts.FrameAnalysisInstruction, analysisTemperature, analysisMaxTokens).
		WithImage(detected, frame)

	out, err := v.assistant.ProcessPrompt(ctx, in)
	if err != nil {
		v.metrics.ObserveAnalysis("error")
		v.logger.Warnf("frame analysis failed: %v", err)
		return AnalysisOutcome{}, fmt.Errorf("%w: %v", ErrAnalysis, err)
	}

	text := out.Response.Content
	obs, err := ParseObservation(text)
	if err != nil {
		v.metrics.ObserveAnalysis("raw")
		v.logger.Debugf("frame analysis fell back to raw: %v", err)
		return AnalysisOutcome{Raw: &RawResult{Raw: text}}, nil
	}

	v.metrics.ObserveAnalysis("event")
	return AnalysisOutcome{Observation: &obs}, nil
}

// Summarize implements VisionService
func (v *visionService) Summarize(ctx context.Context, events []VisionEvent) (SummaryOutcome, error) {
	if len(events) == 0 {
		v.metrics.ObserveSummary("skipped")
		return SummaryOutcome{}, nil
	}

	in := v.input(prompts.SESSION_SUMMARY_PROMPT, prompts.SessionObservationsHeader+FormatEvents(events), summaryTemperature, summaryMaxTokens)

	out, err := v.assistant.ProcessPrompt(ctx, in)
	if err != nil {
		v.metrics.ObserveSummary("error")
		v.logger.Warnf("session summary failed: %v", err)
		return SummaryOutcome{}, fmt.Errorf("%w: %v", ErrSummarization, err)
	}

	text := out.Response.Content
	summary, err := ParseSummary(text)
	if err != nil {
		v.metrics.ObserveSummary("raw")
		v.logger.Debugf("session summary fell back to raw: %v", err)
		return SummaryOutcome{Raw: &RawResult{Raw: text}}, nil
	}

	v.metrics.ObserveSummary("summary")
	return SummaryOutcome{Summary: &summary}, nil
}

func (v *visionService) input(p prompts.SYS_PROMPT, user string, temperature float64, maxTokens int) assistant.AssistantInput {
	in := assistant.NewAssistantInput(
		p.GetCurrentPrompt().ToMessage(),
		assistant.UserMessage(user),
	)
	in.Provider = v.cfg.Provider
	in.Model = v.cfg.Model
	in.JSONMode = true
	in.Temperature = assistant.Temperature(temperature)
	in.MaxTokens = maxTokens
	return in
}

// FormatEvents renders one line per event in timeline order.
func FormatEvents(events []VisionEvent) string {
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		lines = append(lines, fmt.Sprintf("%s | posture=%s | movement=%s | bed_exit=%t | note=%s",
			ev.Timestamp, ev.Posture, ev.Movement, ev.BedExit, ev.Note))
	}
	return strings.Join(lines, "\n")
}

func NewVisionService(
	a assistant.Assistant,
	cfg Config,
	metrics *observability.Metrics,
	logger *Logger.Logger,
) VisionService {
	return &visionService{
		assistant: a,
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger,
	}
}
