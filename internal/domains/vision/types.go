package vision

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const MaxNoteLength = 120

// RecommendationCount is the exact number of recommendations a summary carries.
const RecommendationCount = 3

type Posture string

const (
	PostureSupine    Posture = "supine"
	PostureSideLeft  Posture = "side-left"
	PostureSideRight Posture = "side-right"
	PostureProne     Posture = "prone"
	PostureSitting   Posture = "sitting"
	PostureUnknown   Posture = "unknown"
)

func (p Posture) Valid() bool {
	switch p {
	case PostureSupine, PostureSideLeft, PostureSideRight, PostureProne, PostureSitting, PostureUnknown:
		return true
	}
	return false
}

type Movement string

const (
	MovementNone  Movement = "none"
	MovementMinor Movement = "minor"
	MovementMajor Movement = "major"
)

func (m Movement) Valid() bool {
	switch m {
	case MovementNone, MovementMinor, MovementMajor:
		return true
	}
	return false
}

type LightChange string

const (
	LightNone    LightChange = "none"
	LightUp      LightChange = "up"
	LightDown    LightChange = "down"
	LightUnknown LightChange = "unknown"
)

func (l LightChange) Valid() bool {
	switch l {
	case LightNone, LightUp, LightDown, LightUnknown:
		return true
	}
	return false
}

// VisionObservation is what the vision collaborator reports for one frame.
type VisionObservation struct {
	Posture     Posture     `json:"posture" example:"side-left"`
	Movement    Movement    `json:"movement" example:"minor"`
	BedExit     bool        `json:"bed_exit"`
	LightChange LightChange `json:"light_change" example:"none"`
	Note        string      `json:"note" example:"turned slightly"`
	Confidence  *float64    `json:"confidence,omitempty" example:"0.8"`
}

// VisionEvent is an observation stamped with its capture time.
type VisionEvent struct {
	Timestamp string `json:"timestamp" example:"2025-01-01T02:30:00Z"`
	VisionObservation
}

// At stamps the observation with an ISO-8601 capture time.
func (o VisionObservation) At(ts time.Time) VisionEvent {
	return VisionEvent{Timestamp: ts.UTC().Format(time.RFC3339), VisionObservation: o}
}

// RawResult holds collaborator output that did not parse into the expected
// shape.
type RawResult struct {
	Raw string `json:"raw"`
}

// AnalysisOutcome carries exactly one of Observation or Raw.
type AnalysisOutcome struct {
	Observation *VisionObservation
	Raw         *RawResult
}

// Percentage accepts 40, 40.5 or "40%" when decoding.
type Percentage float64

func (p *Percentage) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*p = Percentage(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("percentage must be a number or string: %s", string(b))
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%")), 64)
	if err != nil {
		return fmt.Errorf("invalid percentage %q", s)
	}
	*p = Percentage(n)
	return nil
}

type SessionSummary struct {
	Summary             string                `json:"summary"`
	KeyEvents           []string              `json:"key_events"`
	PostureDistribution map[string]Percentage `json:"posture_distribution"`
	NotableMovements    []string              `json:"notable_movements"`
	Recommendations     []string              `json:"recommendations"`
}

// SummaryOutcome carries at most one of Summary or Raw. Both nil means no
// summary was produced.
type SummaryOutcome struct {
	Summary *SessionSummary
	Raw     *RawResult
}

func (s SummaryOutcome) IsZero() bool {
	return s.Summary == nil && s.Raw == nil
}
