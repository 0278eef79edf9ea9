package sleep

import (
	"context"
	"errors"
	"fmt"

	"github.com/xpanvictor/somniatrack/internal/observability"
	"github.com/xpanvictor/somniatrack/pkg/Logger"
)

var ErrAudioTooLarge = errors.New("audio upload exceeds size limit")

// SleepService defines the audio side of sleep estimation
type SleepService interface {
	Analyze(ctx context.Context, filename string, raw []byte) (*ClassificationResult, error)
	Demo(ctx context.Context) ClassificationResult
	Tips(ctx context.Context, shiftStart, shiftEnd string) (*EquityPlan, error)
}

type sleepService struct {
	maxBytes int64
	metrics  *observability.Metrics
	logger   *Logger.Logger
}

// Analyze implements SleepService
func (s *sleepService) Analyze(ctx context.Context, filename string, raw []byte) (*ClassificationResult, error) {
	if s.maxBytes > 0 && int64(len(raw)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrAudioTooLarge, len(raw), s.maxBytes)
	}

	result, err := Classify(raw, filename)
	if err != nil {
		s.logger.Debugf("classification of %q failed: %v", filename, err)
		return nil, err
	}

	s.metrics.ObserveClassification(string(result.State))
	s.logger.Infof("classified %q: state=%s score=%.1f", filename, result.State, result.Score)
	return &result, nil
}

// Demo implements SleepService
func (s *sleepService) Demo(ctx context.Context) ClassificationResult {
	return DemoResult()
}

// Tips implements SleepService
func (s *sleepService) Tips(ctx context.Context, shiftStart, shiftEnd string) (*EquityPlan, error) {
	plan, err := PlanForShift(shiftStart, shiftEnd)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func NewSleepService(maxBytes int64, metrics *observability.Metrics, logger *Logger.Logger) SleepService {
	return &sleepService{
		maxBytes: maxBytes,
		metrics:  metrics,
		logger:   logger,
	}
}
