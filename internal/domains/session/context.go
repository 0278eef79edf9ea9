package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/xpanvictor/somniatrack/internal/domains/sleep"
	"github.com/xpanvictor/somniatrack/internal/domains/vision"
	"github.com/xpanvictor/somniatrack/pkg/Logger"
	framering "github.com/xpanvictor/somniatrack/pkg/io/frameRing"
)

type Kind string

const (
	KindAudio  Kind = "audio"
	KindVision Kind = "vision"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindAudio, KindVision:
		return Kind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// Lifecycle states and events.
const (
	StateRunning = "running"
	StateStopped = "stopped"
	StateEnded   = "ended"

	EventStart = "start"
	EventStop  = "stop"
	EventEnd   = "end"
)

const (
	subscriberBuffer = 16

	DefaultQueueBytes = 32 << 20
	// audio sessions never queue frames
	audioQueueBytes = 4 << 10
)

type Options struct {
	Consent         bool
	CaptureInterval time.Duration
	MaxFrames       int
	QueueBytes      int
}

// SessionContext owns everything one session accumulates: its history,
// pending frames, error log and summary. It is safe for concurrent use by a
// frame producer, the analysis consumer and HTTP readers.
type SessionContext struct {
	ID        uuid.UUID
	Kind      Kind
	CreatedAt time.Time

	opts   Options
	logger *Logger.Logger
	clock  func() time.Time
	onDrop func(n int)

	machine *fsm.FSM
	history *History[Entry]
	queue   framering.FrameRingBuffer

	mu           sync.Mutex
	errs         []SessionError
	summary      vision.SummaryOutcome
	summaryState summaryState
	latest       *framering.FrameInput
	frameSeq     uint64
	captured     int
	processed    int
	generation   uint64
	lastActive   time.Time
	subscribers  map[int]chan Entry
	nextSubID    int
}

type summaryState int

const (
	summaryPending summaryState = iota
	summaryInFlight
	summaryDone
)

func NewSessionContext(kind Kind, opts Options, logger *Logger.Logger) *SessionContext {
	switch {
	case kind != KindVision:
		opts.QueueBytes = audioQueueBytes
	case opts.QueueBytes <= 0:
		opts.QueueBytes = DefaultQueueBytes
	}

	s := &SessionContext{
		ID:          uuid.New(),
		Kind:        kind,
		opts:        opts,
		logger:      logger,
		clock:       time.Now,
		history:     NewHistory[Entry](),
		queue:       framering.New(opts.QueueBytes),
		errs:        make([]SessionError, 0),
		subscribers: make(map[int]chan Entry),
	}
	s.CreatedAt = s.clock()
	s.lastActive = s.CreatedAt

	s.machine = fsm.NewFSM(
		StateRunning,
		fsm.Events{
			{Name: EventStop, Src: []string{StateRunning}, Dst: StateStopped},
			{Name: EventStart, Src: []string{StateStopped}, Dst: StateRunning},
			{Name: EventEnd, Src: []string{StateRunning, StateStopped}, Dst: StateEnded},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				s.logger.Debugf("session %s: %s -> %s", s.ID, e.Src, e.Dst)
			},
		},
	)
	return s
}

func (s *SessionContext) Options() Options {
	return s.opts
}

func (s *SessionContext) Status() string {
	return s.machine.Current()
}

func (s *SessionContext) Running() bool {
	return s.machine.Is(StateRunning)
}

func (s *SessionContext) Ended() bool {
	return s.machine.Is(StateEnded)
}

// Start resumes a stopped session as a fresh one: history, queue, errors and
// summary are cleared. Starting a running session is a no-op.
func (s *SessionContext) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine.Is(StateRunning) {
		return nil
	}
	if err := s.transition(ctx, EventStart); err != nil {
		return err
	}
	s.clearLocked()
	s.lastActive = s.clock()
	return nil
}

// Stop blocks new frames. Frames already queued are still analyzed.
func (s *SessionContext) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine.Is(StateStopped) {
		return nil
	}
	s.latest = nil
	s.lastActive = s.clock()
	return s.transition(ctx, EventStop)
}

// End is terminal. Pending frames are discarded and subscribers closed.
func (s *SessionContext) End(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine.Is(StateEnded) {
		return nil
	}
	if err := s.transition(ctx, EventEnd); err != nil {
		return err
	}
	s.queue.Reset()
	s.latest = nil
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	return nil
}

func (s *SessionContext) transition(ctx context.Context, event string) error {
	if s.machine.Is(StateEnded) {
		return ErrSessionEnded
	}
	err := s.machine.Event(ctx, event)
	if err == nil {
		return nil
	}
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return nil
	}
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, event, s.machine.Current())
}

// Reset clears the history and everything derived from it. Idempotent.
func (s *SessionContext) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine.Is(StateEnded) {
		return ErrSessionEnded
	}
	s.clearLocked()
	s.lastActive = s.clock()
	return nil
}

func (s *SessionContext) clearLocked() {
	s.history.Reset()
	s.queue.Reset()
	s.errs = make([]SessionError, 0)
	s.summary = vision.SummaryOutcome{}
	s.summaryState = summaryPending
	s.latest = nil
	s.captured = 0
	s.processed = 0
	s.generation++
}

// Generation identifies the current run of the session. It changes on every
// reset and restart, so work started before one can be recognised as stale.
func (s *SessionContext) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Append records an entry at the end of the history and fans it out to
// subscribers.
func (s *SessionContext) Append(e Entry) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(e)
}

// AppendFor appends e only if the session is still on generation gen.
func (s *SessionContext) AppendFor(gen uint64, e Entry) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.machine.Is(StateEnded) {
		return Entry{}, false
	}
	return s.appendLocked(e), true
}

func (s *SessionContext) appendLocked(e Entry) Entry {
	e.RecordedAt = s.clock()
	e.Seq = s.history.Append(e)
	s.lastActive = e.RecordedAt

	for _, ch := range s.subscribers {
		select {
		case ch <- e:
		default:
			// slow reader, it can resync from a snapshot
		}
	}
	return e
}

// AppendClassification adds an audio result to a running audio session.
func (s *SessionContext) AppendClassification(r sleep.ClassificationResult) (Entry, error) {
	if s.Kind != KindAudio {
		return Entry{}, ErrWrongSessionKind
	}
	if s.Ended() {
		return Entry{}, ErrSessionEnded
	}
	if !s.Running() {
		return Entry{}, ErrSessionNotRunning
	}
	return s.Append(ClassificationEntry(r)), nil
}

func (s *SessionContext) Snapshot() []Entry {
	return s.history.Snapshot()
}

// Events returns the vision events in history order, skipping raw entries.
func (s *SessionContext) Events() []vision.VisionEvent {
	entries := s.history.Snapshot()
	events := make([]vision.VisionEvent, 0, len(entries))
	for _, e := range entries {
		if e.Kind == EntryVisionEvent && e.Event != nil {
			events = append(events, *e.Event)
		}
	}
	return events
}

// Enqueue accepts a frame for analysis. Only running vision sessions accept
// frames, and at most MaxFrames per session run.
func (s *SessionContext) Enqueue(data []byte, mediaType string, at time.Time) (framering.FrameInput, error) {
	if s.Kind != KindVision {
		return framering.FrameInput{}, ErrWrongSessionKind
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enqueueLocked(data, mediaType, at)
}

func (s *SessionContext) enqueueLocked(data []byte, mediaType string, at time.Time) (framering.FrameInput, error) {
	switch {
	case s.machine.Is(StateEnded):
		return framering.FrameInput{}, ErrSessionEnded
	case !s.machine.Is(StateRunning):
		return framering.FrameInput{}, ErrSessionNotRunning
	case s.opts.MaxFrames > 0 && s.captured >= s.opts.MaxFrames:
		return framering.FrameInput{}, ErrFrameLimit
	}

	s.frameSeq++
	frame := framering.FrameInput{Seq: s.frameSeq, Data: data, MediaType: mediaType, Timestamp: at}
	dropped, err := s.queue.Enqueue(frame)
	if err != nil {
		return framering.FrameInput{}, err
	}
	if dropped > 0 {
		s.logger.Warnf("session %s: queue full, dropped %d oldest frame(s)", s.ID, dropped)
		if s.onDrop != nil {
			s.onDrop(dropped)
		}
	}
	s.captured++
	s.lastActive = s.clock()
	return frame, nil
}

// PushLatest stores the newest live frame for the sampler to pick up.
// Earlier unsampled frames are replaced.
func (s *SessionContext) PushLatest(data []byte, mediaType string, at time.Time) error {
	if s.Kind != KindVision {
		return ErrWrongSessionKind
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine.Is(StateEnded) {
		return ErrSessionEnded
	}
	if !s.machine.Is(StateRunning) {
		return ErrSessionNotRunning
	}
	s.latest = &framering.FrameInput{Data: data, MediaType: mediaType, Timestamp: at}
	s.lastActive = s.clock()
	return nil
}

// SampleLatest moves the newest live frame, if any, into the queue. Each
// pushed frame is sampled at most once.
func (s *SessionContext) SampleLatest() (framering.FrameInput, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latest == nil {
		return framering.FrameInput{}, false, nil
	}
	latest := *s.latest
	s.latest = nil

	frame, err := s.enqueueLocked(latest.Data, latest.MediaType, latest.Timestamp)
	if err != nil {
		return framering.FrameInput{}, false, err
	}
	return frame, true, nil
}

// NextBatch hands at most n queued frames to the consumer, along with the
// generation their results belong to. Ended sessions yield nothing.
func (s *SessionContext) NextBatch(n int) ([]framering.FrameInput, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine.Is(StateEnded) {
		return nil, s.generation
	}
	batch := s.queue.DequeueN(n)
	s.processed += len(batch)
	return batch, s.generation
}

func (s *SessionContext) QueueLen() int {
	return s.queue.Len()
}

// FrameLimitReached reports whether the session has used its frame budget
// and has nothing left to analyze.
func (s *SessionContext) FrameLimitReached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.MaxFrames <= 0 {
		return false
	}
	return s.processed >= s.opts.MaxFrames || (s.captured >= s.opts.MaxFrames && s.queue.Len() == 0)
}

func (s *SessionContext) RecordError(err error, frameSeq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, SessionError{At: s.clock(), Message: err.Error(), FrameSeq: frameSeq})
}

// RecordErrorFor logs err only if the session is still on generation gen.
func (s *SessionContext) RecordErrorFor(gen uint64, err error, frameSeq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return false
	}
	s.errs = append(s.errs, SessionError{At: s.clock(), Message: err.Error(), FrameSeq: frameSeq})
	return true
}

func (s *SessionContext) Errors() []SessionError {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SessionError, len(s.errs))
	copy(out, s.errs)
	return out
}

// ClaimSummary reports whether the caller should produce the automatic
// summary now: the session is stopped, its queue has drained and no summary
// has been produced or started yet. The returned generation goes back with
// the result to SetSummaryFor.
func (s *SessionContext) ClaimSummary() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.machine.Is(StateStopped) || s.queue.Len() > 0 || s.summaryState != summaryPending {
		return s.generation, false
	}
	s.summaryState = summaryInFlight
	return s.generation, true
}

// SetSummary stores a summary outcome. A failed attempt (err != nil) is
// logged on the session and leaves the previous summary in place.
func (s *SessionContext) SetSummary(out vision.SummaryOutcome, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setSummaryLocked(out, err)
}

// SetSummaryFor is SetSummary for a result computed on generation gen. It is
// dropped if the session has been reset or restarted since.
func (s *SessionContext) SetSummaryFor(gen uint64, out vision.SummaryOutcome, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return false
	}
	s.setSummaryLocked(out, err)
	return true
}

func (s *SessionContext) setSummaryLocked(out vision.SummaryOutcome, err error) {
	s.summaryState = summaryDone
	if err != nil {
		s.errs = append(s.errs, SessionError{At: s.clock(), Message: err.Error()})
		return
	}
	s.summary = out
}

// Summary returns the stored summary and whether one has been produced.
func (s *SessionContext) Summary() (vision.SummaryOutcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary, !s.summary.IsZero()
}

func (s *SessionContext) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.clock()
}

func (s *SessionContext) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Subscribe streams every entry appended from now on. The returned cancel
// func must be called when the reader goes away. The channel closes when the
// session ends.
func (s *SessionContext) Subscribe() (<-chan Entry, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Entry, subscriberBuffer)
	if s.machine.Is(StateEnded) {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subscribers[id]; ok {
			close(c)
			delete(s.subscribers, id)
		}
	}
}

// View is the read model served to clients.
type View struct {
	ID              uuid.UUID       `json:"id"`
	Kind            Kind            `json:"kind"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	LastActive      time.Time       `json:"lastActive"`
	CaptureInterval string          `json:"captureInterval,omitempty"`
	MaxFrames       int             `json:"maxFrames,omitempty"`
	FramesCaptured  int             `json:"framesCaptured"`
	FramesAnalyzed  int             `json:"framesAnalyzed"`
	FramesQueued    int             `json:"framesQueued"`
	History         []Entry         `json:"history"`
	Errors          []SessionError  `json:"errors"`
	Summary         *SummaryPayload `json:"summary,omitempty"`
}

// SummaryPayload is the JSON shape of a produced summary: the structured
// report, or the raw text when it did not parse.
type SummaryPayload struct {
	*vision.SessionSummary
	Raw string `json:"raw,omitempty"`
}

func NewSummaryPayload(out vision.SummaryOutcome) *SummaryPayload {
	if out.IsZero() {
		return nil
	}
	p := &SummaryPayload{SessionSummary: out.Summary}
	if out.Raw != nil {
		p.Raw = out.Raw.Raw
	}
	return p
}

func (s *SessionContext) View() View {
	history := s.history.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()

	errs := make([]SessionError, len(s.errs))
	copy(errs, s.errs)

	v := View{
		ID:             s.ID,
		Kind:           s.Kind,
		Status:         s.machine.Current(),
		CreatedAt:      s.CreatedAt,
		LastActive:     s.lastActive,
		FramesCaptured: s.captured,
		FramesAnalyzed: s.processed,
		FramesQueued:   s.queue.Len(),
		History:        history,
		Errors:         errs,
		Summary:        NewSummaryPayload(s.summary),
	}
	if s.Kind == KindVision {
		v.CaptureInterval = s.opts.CaptureInterval.String()
		v.MaxFrames = s.opts.MaxFrames
	}
	return v
}
