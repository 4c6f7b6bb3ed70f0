// Package scheduler runs the pipeline on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// RunFunc is one scheduled pipeline run.
type RunFunc func(ctx context.Context) error

// Status is a snapshot of the scheduled job.
type Status struct {
	Schedule     string
	Running      bool
	IsProcessing bool
	LastRun      *time.Time
	NextRun      *time.Time
	LastError    string
}

// Service triggers a RunFunc on a cron expression. A tick that fires while a
// run is still in progress is skipped.
type Service struct {
	run    RunFunc
	cron   *cron.Cron
	logger arbor.ILogger

	mu           sync.Mutex
	schedule     string
	entryID      cron.EntryID
	running      bool
	isProcessing bool
	lastRun      *time.Time
	lastError    string

	ctx    context.Context
	cancel context.CancelFunc
}

// NewService creates a scheduler for run.
func NewService(run RunFunc, logger arbor.ILogger) *Service {
	return &Service{
		run:    run,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start registers the schedule and starts the cron loop.
func (s *Service) Start(cronExpr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if cronExpr == "" {
		return fmt.Errorf("schedule is required")
	}

	id, err := s.cron.AddFunc(cronExpr, s.runScheduledTask)
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.entryID = id
	s.schedule = cronExpr
	s.running = true
	s.cron.Start()

	s.logger.Info().
		Str("cron_expr", cronExpr).
		Msg("Scheduler started")

	return nil
}

// Stop removes the schedule, cancels an in-flight run and waits for it to
// return. The service can be started again afterwards.
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.cron.Remove(s.entryID)
	s.entryID = 0
	s.cancel()
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// TriggerNow runs the job immediately in the background.
func (s *Service) TriggerNow() error {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	if !running {
		return fmt.Errorf("scheduler not running")
	}
	go s.runScheduledTask()
	return nil
}

// IsRunning reports whether the cron loop is active.
func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Status returns the current job status.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		Schedule:     s.schedule,
		Running:      s.running,
		IsProcessing: s.isProcessing,
		LastRun:      s.lastRun,
		LastError:    s.lastError,
	}
	if s.running {
		if next := s.cron.Entry(s.entryID).Next; !next.IsZero() {
			status.NextRun = &next
		}
	}
	return status
}

func (s *Service) runScheduledTask() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Recovered from panic in scheduled run")
			s.finish(fmt.Errorf("panic: %v", r))
		}
	}()

	s.mu.Lock()
	if s.isProcessing {
		s.mu.Unlock()
		s.logger.Warn().Msg("Previous run still in progress, skipping this cycle")
		return
	}
	s.isProcessing = true
	ctx := s.ctx
	s.mu.Unlock()

	s.logger.Info().Msg("Starting scheduled pipeline run")
	start := time.Now()

	err := s.run(ctx)
	if err != nil {
		s.logger.Error().
			Err(err).
			Dur("duration", time.Since(start)).
			Msg("Scheduled pipeline run failed")
	} else {
		s.logger.Info().
			Dur("duration", time.Since(start)).
			Msg("Scheduled pipeline run completed")
	}
	s.finish(err)
}

func (s *Service) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.lastRun = &now
	s.isProcessing = false
	s.lastError = ""
	if err != nil {
		s.lastError = err.Error()
	}
}
