package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/xraph/conveyor"
	"github.com/xraph/conveyor/id"
)

// RestartFunc is the callback the scheduler uses to restart jobs.
// This breaks the import cycle: the engine provides the implementation.
type RestartFunc func(ctx context.Context, jobID id.JobID) error

// Emitter emits cron lifecycle events.
// ext.Registry satisfies this interface via EmitCronFired.
type Emitter interface {
	EmitCronFired(ctx context.Context, entryName string, jobID id.JobID)
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithTickInterval sets how often the scheduler checks for due entries.
func WithTickInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.tickInterval = d }
}

// cronParser supports standard 5-field cron and descriptors like "@every 30s".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// ParseSchedule parses a cron expression and returns the schedule.
func ParseSchedule(expr string) (cronlib.Schedule, error) {
	return cronParser.Parse(expr)
}

// Scheduler runs cron entries on a tick loop, restarting the referenced
// job whenever an entry comes due. Entries live in memory for the
// lifetime of the scheduler.
type Scheduler struct {
	restart RestartFunc
	emitter Emitter
	logger  *slog.Logger

	tickInterval time.Duration

	mu      sync.Mutex
	entries map[id.CronID]*Entry
	byName  map[string]id.CronID

	// parsedSchedules caches parsed cron expressions.
	parsedMu sync.RWMutex
	parsed   map[string]cronlib.Schedule

	stopCh  chan struct{}
	wg      sync.WaitGroup
	started bool
	stopped bool
}

// NewScheduler creates a Scheduler.
func NewScheduler(restart RestartFunc, emitter Emitter, logger *slog.Logger, opts ...SchedulerOption) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Scheduler{
		restart:      restart,
		emitter:      emitter,
		logger:       logger,
		tickInterval: 1 * time.Second,
		entries:      make(map[id.CronID]*Entry),
		byName:       make(map[string]id.CronID),
		parsed:       make(map[string]cronlib.Schedule),
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds an enabled entry that restarts jobID per the schedule.
// The name must be unique among registered entries.
func (s *Scheduler) Register(name, schedule string, jobID id.JobID) (id.CronID, error) {
	sched, err := s.getOrParseSchedule(schedule)
	if err != nil {
		return id.Nil, fmt.Errorf("cron: invalid schedule %q: %w", schedule, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byName[name]; exists {
		return id.Nil, fmt.Errorf("cron: duplicate entry name %q", name)
	}

	next := sched.Next(time.Now().UTC())
	entry := &Entry{
		ID:        id.NewCronID(),
		Name:      name,
		Schedule:  schedule,
		JobID:     jobID,
		Enabled:   true,
		NextRunAt: &next,
	}
	s.entries[entry.ID] = entry
	s.byName[name] = entry.ID
	return entry.ID, nil
}

// Remove deletes an entry.
func (s *Scheduler) Remove(entryID id.CronID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[entryID]; ok {
		delete(s.byName, entry.Name)
		delete(s.entries, entryID)
	}
}

// SetEnabled enables or disables an entry.
func (s *Scheduler) SetEnabled(entryID id.CronID, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[entryID]
	if !ok {
		return fmt.Errorf("cron: entry %s not found", entryID)
	}
	entry.Enabled = enabled
	return nil
}

// Entries returns a snapshot of all registered entries.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, *e)
	}
	return out
}

// Start launches the tick goroutine. It is a no-op when called twice.
func (s *Scheduler) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.started = true

	s.wg.Add(1)
	go s.tickLoop()
	s.logger.Info("cron scheduler started",
		slog.Duration("tick_interval", s.tickInterval),
	)
	return nil
}

// Stop signals the scheduler to stop and waits for the tick goroutine
// to finish. Idempotent.
func (s *Scheduler) Stop(_ context.Context) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("cron scheduler stopped")
	return nil
}

// tickLoop fires on each tick interval and processes due entries.
func (s *Scheduler) tickLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	now := time.Now().UTC()

	s.mu.Lock()
	due := make([]*Entry, 0)
	for _, entry := range s.entries {
		if !entry.Enabled {
			continue
		}
		if entry.NextRunAt == nil || entry.NextRunAt.After(now) {
			continue
		}
		due = append(due, entry)
	}
	s.mu.Unlock()

	for _, entry := range due {
		s.fireEntry(context.Background(), entry, now)
	}
}

func (s *Scheduler) fireEntry(ctx context.Context, entry *Entry, now time.Time) {
	err := s.restart(ctx, entry.JobID)
	switch {
	case errors.Is(err, conveyor.ErrJobActive):
		// The prior activation is still running; try again next time.
		s.logger.Debug("cron entry skipped, job still active",
			slog.String("cron_name", entry.Name),
			slog.String("job_id", entry.JobID.String()),
		)
	case err != nil:
		s.logger.Error("cron restart error",
			slog.String("cron_name", entry.Name),
			slog.String("job_id", entry.JobID.String()),
			slog.String("error", err.Error()),
		)
	}

	// Advance the schedule regardless of the outcome so a stuck or
	// removed job cannot make the entry fire on every tick.
	s.mu.Lock()
	entry.LastRunAt = &now
	if sched, parseErr := s.getOrParseSchedule(entry.Schedule); parseErr == nil {
		next := sched.Next(now)
		entry.NextRunAt = &next
	}
	s.mu.Unlock()

	if err != nil {
		return
	}

	if s.emitter != nil {
		s.emitter.EmitCronFired(ctx, entry.Name, entry.JobID)
	}

	s.logger.Info("cron fired",
		slog.String("cron_name", entry.Name),
		slog.String("job_id", entry.JobID.String()),
	)
}

func (s *Scheduler) getOrParseSchedule(expr string) (cronlib.Schedule, error) {
	s.parsedMu.RLock()
	sched, ok := s.parsed[expr]
	s.parsedMu.RUnlock()
	if ok {
		return sched, nil
	}

	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, err
	}

	s.parsedMu.Lock()
	s.parsed[expr] = sched
	s.parsedMu.Unlock()
	return sched, nil
}
