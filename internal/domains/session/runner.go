package session

import (
	"context"
	"time"

	"github.com/xpanvictor/somniatrack/internal/domains/vision"
	"github.com/xpanvictor/somniatrack/pkg/Logger"
	"golang.org/x/sync/errgroup"
)

type RunnerConfig struct {
	CaptureInterval time.Duration
	ConsumeInterval time.Duration
	BatchSize       int
}

// Runner drives one vision session: a sampler moving live frames into the
// queue every capture interval, and a consumer analyzing a small batch from
// the queue every consume interval.
type Runner struct {
	sess   *SessionContext
	vision vision.VisionService
	cfg    RunnerConfig
	logger *Logger.Logger
}

func NewRunner(sess *SessionContext, vs vision.VisionService, cfg RunnerConfig, logger *Logger.Logger) *Runner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 3
	}
	if cfg.ConsumeInterval <= 0 {
		cfg.ConsumeInterval = time.Second
	}
	if cfg.CaptureInterval <= 0 {
		cfg.CaptureInterval = sess.Options().CaptureInterval
	}
	return &Runner{sess: sess, vision: vs, cfg: cfg, logger: logger}
}

// Run blocks until ctx is done or the session ends.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.sample(ctx) })
	g.Go(func() error { return r.consume(ctx) })
	return g.Wait()
}

func (r *Runner) sample(ctx context.Context) error {
	if r.cfg.CaptureInterval <= 0 {
		return nil
	}
	ticker := time.NewTicker(r.cfg.CaptureInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if r.sess.Ended() {
				return nil
			}
			r.SampleOnce()
		}
	}
}

// SampleOnce enqueues the newest live frame, if there is one.
func (r *Runner) SampleOnce() {
	frame, ok, err := r.sess.SampleLatest()
	if err != nil {
		r.logger.Debugf("session %s: frame not sampled: %v", r.sess.ID, err)
		return
	}
	if ok {
		r.logger.Debugf("session %s: sampled frame %d", r.sess.ID, frame.Seq)
	}
}

func (r *Runner) consume(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.ConsumeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if r.sess.Ended() {
				return nil
			}
			r.Tick(ctx)
		}
	}
}

// Tick runs one consumer step: analyze up to BatchSize frames, stop the
// session when its frame budget is spent, and summarize once a stopped
// session has drained.
func (r *Runner) Tick(ctx context.Context) {
	batch, gen := r.sess.NextBatch(r.cfg.BatchSize)
	for _, frame := range batch {
		if ctx.Err() != nil {
			return
		}

		out, err := r.vision.Analyze(ctx, frame.Data, frame.MediaType)
		kept := true
		switch {
		case err != nil:
			kept = r.sess.RecordErrorFor(gen, err, frame.Seq)
		case out.Observation != nil:
			_, kept = r.sess.AppendFor(gen, VisionEventEntry(out.Observation.At(frame.Timestamp), frame.Seq))
		case out.Raw != nil:
			_, kept = r.sess.AppendFor(gen, RawEntry(*out.Raw, frame.Seq))
		}
		if !kept {
			r.logger.Debugf("session %s: dropped result of frame %d, session was reset", r.sess.ID, frame.Seq)
			return
		}
	}

	if r.sess.Running() && r.sess.FrameLimitReached() {
		r.logger.Infof("session %s: frame limit reached, stopping", r.sess.ID)
		if err := r.sess.Stop(ctx); err != nil {
			r.logger.Warnf("session %s: stop failed: %v", r.sess.ID, err)
		}
	}

	if gen, ok := r.sess.ClaimSummary(); ok {
		out, err := r.vision.Summarize(ctx, r.sess.Events())
		if !r.sess.SetSummaryFor(gen, out, err) {
			r.logger.Debugf("session %s: dropped summary, session was reset", r.sess.ID)
		}
	}
}
