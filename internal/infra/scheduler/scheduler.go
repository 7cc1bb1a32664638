package scheduler

import (
	"context"
	"log/slog"
	"time"

	"hostdash/internal/pkg/config"
	"hostdash/internal/pkg/errs"

	"github.com/robfig/cron/v3"
)

const sweepTimeout = 2 * time.Minute

type GrantExpirer interface {
	ExpireGrants(ctx context.Context) (int, error)
}

type ExpiryRecorder interface {
	AddExpiredGrants(n int)
}

// Scheduler runs the periodic maintenance jobs. Overlapping runs of the same job are skipped.
type Scheduler struct {
	cron     *cron.Cron
	expirer  GrantExpirer
	recorder ExpiryRecorder
}

func New(cfg config.SchedulerConfig, expirer GrantExpirer, recorder ExpiryRecorder) (*Scheduler, error) {
	logger := slogLogger{}
	s := &Scheduler{
		cron:     cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
		expirer:  expirer,
		recorder: recorder,
	}
	if _, err := s.cron.AddFunc(cfg.GrantExpirySpec, s.SweepExpiredGrants); err != nil {
		return nil, errs.Wrapf(err, "schedule grant expiry %q", cfg.GrantExpirySpec)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs or until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		slog.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) SweepExpiredGrants() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	start := time.Now()
	n, err := s.expirer.ExpireGrants(ctx)
	if n > 0 && s.recorder != nil {
		s.recorder.AddExpiredGrants(n)
	}
	if err != nil {
		slog.Error("grant expiry sweep failed", "expired", n, "error", err)
		return
	}
	slog.Info("grant expiry sweep finished", "expired", n, "elapsed", time.Since(start))
}

type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
