// Package scheduler runs the worker's periodic jobs: leaderboard
// rebuilds, the daily streak audit, feed pruning, dormant-account
// detection and snapshot flushes. Schedules are either fixed intervals
// or five-field cron expressions evaluated in the configured timezone.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Job is a unit of periodic work.
type Job interface {
	// Name identifies the job in logs and must be unique per scheduler.
	Name() string

	// Run does the work. The context is cancelled on shutdown.
	Run(ctx context.Context) error

	// Description says what the job does, for the startup log.
	Description() string
}

// Schedule decides when a job fires.
type Schedule interface {
	// Next returns the first firing time strictly after t.
	Next(t time.Time) time.Time

	// String renders the schedule for logs.
	String() string
}

var (
	ErrNilJob                  = fmt.Errorf("job cannot be nil")
	ErrNilSchedule             = fmt.Errorf("schedule cannot be nil")
	ErrJobAlreadyExists        = fmt.Errorf("job already exists")
	ErrSchedulerAlreadyRunning = fmt.Errorf("scheduler is already running")
	ErrSchedulerNotRunning     = fmt.Errorf("scheduler is not running")
)

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	// Logger for job lifecycle messages.
	Logger *slog.Logger

	// Timezone in which schedules are evaluated. Defaults to UTC.
	Timezone *time.Location
}

// DefaultSchedulerConfig evaluates schedules in UTC.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Logger:   slog.Default(),
		Timezone: time.UTC,
	}
}

// entry is a registered job together with its firing state.
type entry struct {
	job       Job
	schedule  Schedule
	nextRun   time.Time
	runCount  int64
	failCount int64
}

// Scheduler owns a set of jobs and fires each one when its schedule
// says so. Jobs run on their own goroutines; a slow job never delays
// the others, and Stop waits for in-flight runs to finish.
type Scheduler struct {
	logger   *slog.Logger
	timezone *time.Location

	mu      sync.Mutex
	entries map[string]*entry
	running bool
	cancel  context.CancelFunc
	ctx     context.Context
	wg      sync.WaitGroup
}

// NewScheduler creates an empty scheduler.
func NewScheduler(config SchedulerConfig) *Scheduler {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Timezone == nil {
		config.Timezone = time.UTC
	}
	return &Scheduler{
		logger:   config.Logger,
		timezone: config.Timezone,
		entries:  make(map[string]*entry),
	}
}

// Register adds a job. Names must be unique; registering twice under
// the same name is a wiring bug and fails loudly.
func (s *Scheduler) Register(job Job, schedule Schedule) error {
	if job == nil {
		return ErrNilJob
	}
	if schedule == nil {
		return ErrNilSchedule
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := job.Name()
	if _, dup := s.entries[name]; dup {
		return fmt.Errorf("%w: %s", ErrJobAlreadyExists, name)
	}

	e := &entry{
		job:      job,
		schedule: schedule,
		nextRun:  schedule.Next(time.Now().In(s.timezone)),
	}
	s.entries[name] = e

	s.logger.Info("job registered",
		"job", name,
		"description", job.Description(),
		"schedule", schedule.String(),
		"next_run", e.nextRun.Format(time.RFC3339),
	)
	return nil
}

// Start launches the firing loop. It returns immediately; jobs run in
// the background until Stop or ctx cancellation.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSchedulerAlreadyRunning
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.logger.Info("scheduler started", "jobs", len(s.entries))

	s.wg.Add(1)
	go s.loop()
	return nil
}

// Stop cancels the loop and blocks until every in-flight job returns.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("scheduler stopped")
	return nil
}

// loop wakes once a second, which is plenty for minute-granularity
// cron schedules, and fires whatever is due.
func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case now := <-ticker.C:
			s.fireDue(now.In(s.timezone))
		}
	}
}

// fireDue launches every job whose nextRun has passed, advancing its
// schedule before the run so a long execution cannot double-fire.
func (s *Scheduler) fireDue(now time.Time) {
	s.mu.Lock()
	var due []*entry
	for _, e := range s.entries {
		if !e.nextRun.IsZero() && now.After(e.nextRun) {
			e.nextRun = e.schedule.Next(now)
			e.runCount++
			due = append(due, e)
		}
	}
	s.mu.Unlock()

	for _, e := range due {
		s.wg.Add(1)
		go s.run(e)
	}
}

func (s *Scheduler) run(e *entry) {
	defer s.wg.Done()

	name := e.job.Name()
	started := time.Now()
	s.logger.Info("job started", "job", name)

	err := e.job.Run(s.ctx)
	elapsed := time.Since(started)

	if err != nil {
		s.mu.Lock()
		e.failCount++
		fails := e.failCount
		s.mu.Unlock()

		s.logger.Error("job failed",
			"job", name,
			"duration", elapsed.String(),
			"failures", fails,
			"error", err,
		)
		return
	}

	s.logger.Info("job completed", "job", name, "duration", elapsed.String())
}
