package vision

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var errShape = errors.New("response does not match the expected shape")

type observationWire struct {
	Posture     *string  `json:"posture"`
	Movement    *string  `json:"movement"`
	BedExit     *bool    `json:"bed_exit"`
	LightChange *string  `json:"light_change"`
	Note        *string  `json:"note"`
	Confidence  *float64 `json:"confidence"`
}

// ParseObservation decodes a frame analysis reply. Missing fields take their
// neutral defaults; wrong types, unknown enum values or an out of range
// confidence are rejected.
func ParseObservation(text string) (VisionObservation, error) {
	var w observationWire
	if err := decodeObject(text, &w); err != nil {
		return VisionObservation{}, err
	}
	if w.Posture == nil && w.Movement == nil && w.BedExit == nil && w.LightChange == nil {
		return VisionObservation{}, fmt.Errorf("%w: no observation fields", errShape)
	}

	obs := VisionObservation{
		Posture:     PostureUnknown,
		Movement:    MovementNone,
		LightChange: LightUnknown,
		Confidence:  w.Confidence,
	}
	if w.Posture != nil {
		obs.Posture = Posture(strings.ToLower(strings.TrimSpace(*w.Posture)))
	}
	if w.Movement != nil {
		obs.Movement = Movement(strings.ToLower(strings.TrimSpace(*w.Movement)))
	}
	if w.LightChange != nil {
		obs.LightChange = LightChange(strings.ToLower(strings.TrimSpace(*w.LightChange)))
	}
	if w.BedExit != nil {
		obs.BedExit = *w.BedExit
	}
	if w.Note != nil {
		obs.Note = TruncateNote(*w.Note)
	}

	switch {
	case !obs.Posture.Valid():
		return VisionObservation{}, fmt.Errorf("%w: posture %q", errShape, obs.Posture)
	case !obs.Movement.Valid():
		return VisionObservation{}, fmt.Errorf("%w: movement %q", errShape, obs.Movement)
	case !obs.LightChange.Valid():
		return VisionObservation{}, fmt.Errorf("%w: light_change %q", errShape, obs.LightChange)
	case obs.Confidence != nil && (*obs.Confidence < 0 || *obs.Confidence > 1):
		return VisionObservation{}, fmt.Errorf("%w: confidence %v", errShape, *obs.Confidence)
	}
	return obs, nil
}

// ParseSummary decodes a session summary reply. The summary text and exactly
// RecommendationCount recommendations are required; the other list fields
// default to empty.
func ParseSummary(text string) (SessionSummary, error) {
	var s SessionSummary
	if err := decodeObject(text, &s); err != nil {
		return SessionSummary{}, err
	}
	if strings.TrimSpace(s.Summary) == "" {
		return SessionSummary{}, fmt.Errorf("%w: missing summary", errShape)
	}
	if len(s.Recommendations) != RecommendationCount {
		return SessionSummary{}, fmt.Errorf("%w: %d recommendations, want %d", errShape, len(s.Recommendations), RecommendationCount)
	}
	if s.KeyEvents == nil {
		s.KeyEvents = []string{}
	}
	if s.NotableMovements == nil {
		s.NotableMovements = []string{}
	}
	if s.PostureDistribution == nil {
		s.PostureDistribution = map[string]Percentage{}
	}
	return s, nil
}

// TruncateNote caps a note at MaxNoteLength characters.
func TruncateNote(note string) string {
	r := []rune(note)
	if len(r) <= MaxNoteLength {
		return note
	}
	return string(r[:MaxNoteLength])
}

func decodeObject(text string, v any) error {
	body := stripCodeFence(text)
	if !strings.HasPrefix(body, "{") {
		return fmt.Errorf("%w: not a JSON object", errShape)
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("%w: %v", errShape, err)
	}
	return nil
}

// local models like to wrap JSON in ```json fences
func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
