package sleep

import (
	"fmt"
	"math"

	"github.com/xpanvictor/somniatrack/pkg/io/audio"
)

// Demo thresholds carried over unchanged from the first prototype; they have
// no stated derivation, so keep them as-is until product asks otherwise.
const (
	AsleepRMSThreshold = 0.02
	ScoreRMSScale      = 4000.0
	MaxScore           = 100.0
)

type State string

const (
	Asleep State = "asleep"
	Awake  State = "awake"
)

// ClassificationResult is the outcome for one audio clip.
type ClassificationResult struct {
	State State   `json:"state" example:"asleep"`
	Score float64 `json:"score" example:"60"`
	Notes string  `json:"notes" example:"Avg RMS=0.0100. Lower RMS indicates quieter periods (more likely asleep)."`
}

// Classify decodes raw container bytes declared by filename or extension
// and classifies the clip.
func Classify(raw []byte, declaredFormat string) (ClassificationResult, error) {
	sig, err := audio.Decode(raw, declaredFormat)
	if err != nil {
		return ClassificationResult{}, err
	}
	return ClassifySignal(sig)
}

// ClassifySignal applies the RMS policy to an already decoded signal.
func ClassifySignal(sig audio.AudioSignal) (ClassificationResult, error) {
	if len(sig.Samples) == 0 {
		return ClassificationResult{}, ErrEmptyAudio
	}
	return ClassifyRMS(sig.Mono().RMS()), nil
}

// ClassifyRMS maps a loudness value onto state, score and notes.
func ClassifyRMS(rms float64) ClassificationResult {
	state := Awake
	if rms < AsleepRMSThreshold {
		state = Asleep
	}
	return ClassificationResult{
		State: state,
		Score: Score(rms),
		Notes: fmt.Sprintf("Avg RMS=%.4f. Lower RMS indicates quieter periods (more likely asleep).", rms),
	}
}

// Score is 100 - rms*4000 clamped at zero, rounded to one decimal.
func Score(rms float64) float64 {
	score := math.Max(0, MaxScore-rms*ScoreRMSScale)
	return math.Round(score*10) / 10
}

// DemoResult is the canned answer the demo mode shows without any audio.
func DemoResult() ClassificationResult {
	return ClassificationResult{
		State: Asleep,
		Score: 83,
		Notes: "Low RMS and minimal spikes suggest sustained rest.",
	}
}
