// Package refresh periodically reloads the task list from the store so that
// changes made elsewhere show up without a restart.
package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	rcron "github.com/robfig/cron/v3"

	"github.com/harrisonrobin/tugas/pkg/logging"
)

const (
	// reloadTimeout bounds a single reload.
	reloadTimeout = 30 * time.Second
	// stopTimeout bounds how long Stop waits for a running reload.
	stopTimeout = 5 * time.Second
)

// Reloader is what the scheduler drives.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Scheduler runs Reload on a cron schedule.
type Scheduler struct {
	spec     string
	target   Reloader
	logger   *log.Logger
	onReload func(error)

	mu     sync.Mutex
	cron   *rcron.Cron
	cancel context.CancelFunc
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithHook is called after every reload with its result.
func WithHook(f func(error)) Option {
	return func(s *Scheduler) { s.onReload = f }
}

// New validates spec ("@every 1m", "*/5 * * * *", ...) and returns a stopped scheduler.
func New(spec string, target Reloader, logger *log.Logger, opts ...Option) (*Scheduler, error) {
	if _, err := rcron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", spec, err)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Scheduler{spec: spec, target: target, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start begins running reloads until ctx is done or Stop is called.
// Overlapping runs are skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return fmt.Errorf("scheduler already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := rcron.New(rcron.WithChain(rcron.SkipIfStillRunning(cronLogger{s.logger})))
	if _, err := c.AddFunc(s.spec, func() { s.RunOnce(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("register reconcile job: %w", err)
	}
	s.cron = c
	s.cancel = cancel
	c.Start()
	s.logger.Info("reconciliation started", "schedule", s.spec)

	go func() {
		<-runCtx.Done()
		s.Stop()
	}()
	return nil
}

// RunOnce reloads immediately.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, reloadTimeout)
	defer cancel()
	err := s.target.Reload(ctx)
	if err != nil {
		s.logger.Warn("reconciliation failed", "err", err)
	} else {
		s.logger.Debug("reconciled")
	}
	if s.onReload != nil {
		s.onReload(err)
	}
	return err
}

// Stop halts the schedule and waits briefly for a running reload. It is
// safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	cancel()
	select {
	case <-c.Stop().Done():
	case <-time.After(stopTimeout):
		s.logger.Warn("timed out waiting for a running reconciliation")
	}
	s.logger.Info("reconciliation stopped")
}

// cronLogger adapts the application logger to the cron package.
type cronLogger struct{ l *log.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(keysAndValues, "err", err)...)
}
