package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xpanvictor/somniatrack/internal/domains/vision"
	"github.com/xpanvictor/somniatrack/internal/observability"
	"github.com/xpanvictor/somniatrack/pkg/Logger"
)

// Capture ranges offered to users.
const (
	MinCaptureInterval     = 5 * time.Second
	MaxCaptureInterval     = 120 * time.Second
	DefaultCaptureInterval = 20 * time.Second

	MinMaxFrames     = 10
	MaxMaxFrames     = 200
	DefaultMaxFrames = 60
)

type ManagerConfig struct {
	IdleTimeout     time.Duration
	SweepInterval   time.Duration
	QueueBytes      int
	ConsumeInterval time.Duration
	BatchSize       int
}

type managedSession struct {
	sess   *SessionContext
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager owns every live session and the runners behind vision sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*managedSession

	cfg     ManagerConfig
	vision  vision.VisionService
	tokens  *TokenIssuer
	metrics *observability.Metrics
	logger  *Logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewManager(
	cfg ManagerConfig,
	vs vision.VisionService,
	tokens *TokenIssuer,
	metrics *observability.Metrics,
	logger *Logger.Logger,
) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		sessions: make(map[uuid.UUID]*managedSession),
		cfg:      cfg,
		vision:   vs,
		tokens:   tokens,
		metrics:  metrics,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// NormalizeOptions clamps capture settings to the supported ranges and fills
// in defaults.
func NormalizeOptions(opts Options) Options {
	switch {
	case opts.CaptureInterval == 0:
		opts.CaptureInterval = DefaultCaptureInterval
	case opts.CaptureInterval < MinCaptureInterval:
		opts.CaptureInterval = MinCaptureInterval
	case opts.CaptureInterval > MaxCaptureInterval:
		opts.CaptureInterval = MaxCaptureInterval
	}
	switch {
	case opts.MaxFrames == 0:
		opts.MaxFrames = DefaultMaxFrames
	case opts.MaxFrames < MinMaxFrames:
		opts.MaxFrames = MinMaxFrames
	case opts.MaxFrames > MaxMaxFrames:
		opts.MaxFrames = MaxMaxFrames
	}
	return opts
}

// Start creates a running session and returns it with its bearer token.
// Vision sessions need consent and get a runner.
func (m *Manager) Start(kind Kind, opts Options) (*SessionContext, string, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, "", err
	}
	if kind == KindVision && !opts.Consent {
		return nil, "", ErrConsentRequired
	}
	if kind == KindVision {
		opts = NormalizeOptions(opts)
		if opts.QueueBytes == 0 {
			opts.QueueBytes = m.cfg.QueueBytes
		}
	}

	sess := NewSessionContext(kind, opts, m.logger.Named("session"))
	sess.onDrop = m.metrics.FramesDropped

	token, err := m.tokens.Issue(sess.ID, kind)
	if err != nil {
		return nil, "", err
	}

	ms := &managedSession{sess: sess, done: make(chan struct{})}
	if kind == KindVision && m.vision != nil {
		ctx, cancel := context.WithCancel(m.ctx)
		ms.cancel = cancel
		runner := NewRunner(sess, m.vision, RunnerConfig{
			CaptureInterval: opts.CaptureInterval,
			ConsumeInterval: m.cfg.ConsumeInterval,
			BatchSize:       m.cfg.BatchSize,
		}, m.logger.Named("runner"))
		go func() {
			defer close(ms.done)
			if err := runner.Run(ctx); err != nil {
				m.logger.Errorf("session %s runner exited: %v", sess.ID, err)
			}
		}()
	} else {
		close(ms.done)
	}

	m.mu.Lock()
	m.sessions[sess.ID] = ms
	n := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SetActiveSessions(n)
	m.logger.Infof("started %s session %s", kind, sess.ID)
	return sess, token, nil
}

func (m *Manager) Get(id uuid.UUID) (*SessionContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ms, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ms.sess, nil
}

// End stops the session's runner and discards the session.
func (m *Manager) End(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	ms, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	n := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	m.metrics.SetActiveSessions(n)

	err := ms.sess.End(ctx)
	if ms.cancel != nil {
		ms.cancel()
	}
	<-ms.done
	m.logger.Infof("ended session %s", id)
	return err
}

// Summarize produces a summary from the session's events right away and
// stores it on the session.
func (m *Manager) Summarize(ctx context.Context, id uuid.UUID) (vision.SummaryOutcome, error) {
	sess, err := m.Get(id)
	if err != nil {
		return vision.SummaryOutcome{}, err
	}
	if sess.Kind != KindVision || m.vision == nil {
		return vision.SummaryOutcome{}, ErrWrongSessionKind
	}

	gen := sess.Generation()
	out, err := m.vision.Summarize(ctx, sess.Events())
	if !sess.SetSummaryFor(gen, out, err) {
		m.logger.Debugf("session %s: summary not stored, session was reset", id)
	}
	return out, err
}

// Sweep ends sessions idle for longer than the idle timeout and returns how
// many it ended.
func (m *Manager) Sweep(ctx context.Context, now time.Time) int {
	if m.cfg.IdleTimeout <= 0 {
		return 0
	}

	m.mu.RLock()
	stale := make([]uuid.UUID, 0)
	for id, ms := range m.sessions {
		if now.Sub(ms.sess.LastActive()) > m.cfg.IdleTimeout {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	ended := 0
	for _, id := range stale {
		if err := m.End(ctx, id); err == nil {
			ended++
		}
	}
	if ended > 0 {
		m.logger.Infof("swept %d idle session(s)", ended)
	}
	return ended
}

// RunSweeper sweeps idle sessions until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context) {
	interval := m.cfg.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Sweep(ctx, now)
		}
	}
}

func (m *Manager) Tokens() *TokenIssuer {
	return m.tokens
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close ends every session.
func (m *Manager) Close(ctx context.Context) {
	m.mu.RLock()
	ids := make([]uuid.UUID, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		_ = m.End(ctx, id)
	}
	m.cancel()
}
