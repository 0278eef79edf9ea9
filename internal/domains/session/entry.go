package session

import (
	"time"

	"github.com/xpanvictor/somniatrack/internal/domains/sleep"
	"github.com/xpanvictor/somniatrack/internal/domains/vision"
)

type EntryKind string

const (
	EntryClassification EntryKind = "classification"
	EntryVisionEvent    EntryKind = "vision_event"
	EntryRaw            EntryKind = "raw"
)

// Entry is one history record. Exactly one of Classification, Event or Raw
// is set, matching Kind.
type Entry struct {
	Seq            int                         `json:"seq"`
	Kind           EntryKind                   `json:"kind"`
	RecordedAt     time.Time                   `json:"recordedAt"`
	Classification *sleep.ClassificationResult `json:"classification,omitempty"`
	Event          *vision.VisionEvent         `json:"event,omitempty"`
	Raw            *vision.RawResult           `json:"raw,omitempty"`
	// FrameSeq links vision entries back to the frame they came from.
	FrameSeq uint64 `json:"frameSeq,omitempty"`
}

func ClassificationEntry(r sleep.ClassificationResult) Entry {
	return Entry{Kind: EntryClassification, Classification: &r}
}

func VisionEventEntry(ev vision.VisionEvent, frameSeq uint64) Entry {
	return Entry{Kind: EntryVisionEvent, Event: &ev, FrameSeq: frameSeq}
}

func RawEntry(raw vision.RawResult, frameSeq uint64) Entry {
	return Entry{Kind: EntryRaw, Raw: &raw, FrameSeq: frameSeq}
}

// SessionError is a non-fatal failure recorded against a session.
type SessionError struct {
	At       time.Time `json:"at"`
	Message  string    `json:"message"`
	FrameSeq uint64    `json:"frameSeq,omitempty"`
}
