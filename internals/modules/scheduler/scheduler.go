package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/darwin-luque/uptime-monitor/internals/modules/check"
	"github.com/darwin-luque/uptime-monitor/internals/modules/result"
	"github.com/darwin-luque/uptime-monitor/internals/modules/rotation"
	"github.com/darwin-luque/uptime-monitor/pkg/schedule"
	"github.com/rs/zerolog"
)

type Lister interface {
	ListIDs(ctx context.Context, kind string) ([]string, error)
}

type Runner interface {
	Run(ctx context.Context, id string) (result.Report, error)
}

type Rotator interface {
	RotateAll(ctx context.Context) (rotation.Summary, error)
}

// Scheduler drives the two background cycles: the check cycle, which
// fans out one goroutine per stored check on every tick, and the log
// rotation cycle.
type Scheduler struct {
	// lifecycle
	ctx           context.Context
	checkInterval time.Duration
	rotation      schedule.Schedule
	wg            sync.WaitGroup // per-check goroutines and rotation passes
	rotating      sync.Mutex

	// services
	lister  Lister
	runner  Runner
	rotator Rotator
	guard   Guard // nil: overlapping executions are allowed

	stats statsRecorder

	// misc
	logger *zerolog.Logger
}

func NewScheduler(
	ctx context.Context,
	checkInterval time.Duration,
	rotationSchedule schedule.Schedule,
	lister Lister,
	runner Runner,
	rotator Rotator,
	guard Guard,
	logger *zerolog.Logger,
) *Scheduler {

	return &Scheduler{
		ctx:           ctx,
		checkInterval: checkInterval,
		rotation:      rotationSchedule,
		lister:        lister,
		runner:        runner,
		rotator:       rotator,
		guard:         guard,
		logger:        logger,
	}
}

// Run runs both cycles once, then on their schedules until the context is
// cancelled. It does not wait for in-flight checks; use Wait for that.
func (s *Scheduler) Run() {
	if s.checkInterval <= 0 {
		panic("check interval must be > 0")
	}
	s.logger.Info().
		Dur("check_interval", s.checkInterval).
		Str("rotation", s.rotation.String()).
		Msg("Scheduler started")
	defer s.logger.Info().Msg("Scheduler stopped")

	s.RunNow()

	var loops sync.WaitGroup
	loops.Add(2)
	go func() {
		defer loops.Done()
		s.checkLoop()
	}()
	go func() {
		defer loops.Done()
		s.rotationLoop()
	}()
	loops.Wait()
}

// RunNow starts one check cycle and one rotation pass immediately.
func (s *Scheduler) RunNow() {
	s.RunChecks()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.RotateLogs()
	}()
}

// Wait blocks until every check execution and rotation pass started so far
// has finished.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) Stats() Stats {
	return s.stats.snapshot()
}

func (s *Scheduler) checkLoop() {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return

		case <-ticker.C:
			s.RunChecks()
		}
	}
}

func (s *Scheduler) rotationLoop() {
	for {
		now := time.Now()
		timer := time.NewTimer(s.rotation.Next(now).Sub(now))

		select {
		case <-s.ctx.Done():
			timer.Stop()
			return

		case <-timer.C:
			s.RotateLogs()
		}
	}
}

// RunChecks lists every stored check and launches one goroutine per check.
// It returns as soon as the goroutines are started.
func (s *Scheduler) RunChecks() {
	start := time.Now()

	ids, err := s.lister.ListIDs(s.ctx, check.Kind)
	if err != nil {
		// transient store error → log & wait for the next tick
		s.logger.Error().Err(err).Msg("could not list checks")
		s.stats.cycle(start, 0, 0, false)
		return
	}

	skipped := 0
	for _, id := range ids {
		release, ok := s.acquire(id)
		if !ok {
			skipped++
			continue
		}

		s.wg.Add(1)
		go func(id string) {
			defer s.wg.Done()
			defer release()
			s.runOne(id)
		}(id)
	}

	s.stats.cycle(start, len(ids), skipped, true)

	if skipped > 0 {
		s.logger.Warn().Int("skipped", skipped).Msg("checks still running from a previous tick were skipped")
	}
	s.logger.Debug().Int("checks", len(ids)-skipped).Msg("check cycle started")
}

func (s *Scheduler) acquire(id string) (func(), bool) {
	if s.guard == nil {
		return func() {}, true
	}

	release, ok, err := s.guard.Acquire(s.ctx, id)
	if err != nil {
		// a broken guard must not stop monitoring
		s.logger.Warn().Err(err).Str("check_id", id).Msg("in-flight guard unavailable, running anyway")
		return func() {}, true
	}
	if !ok {
		return nil, false
	}
	return release, true
}

func (s *Scheduler) runOne(id string) {
	s.stats.started()
	report, err := s.runner.Run(s.ctx, id)
	s.stats.finished(report, err)
}

// RotateLogs runs one rotation pass unless one is already running.
func (s *Scheduler) RotateLogs() {
	if !s.rotating.TryLock() {
		s.logger.Warn().Msg("log rotation already running, skipping")
		return
	}
	defer s.rotating.Unlock()

	summary, err := s.rotator.RotateAll(s.ctx)
	if err != nil {
		// listing failed, the whole pass is skipped
		return
	}
	s.stats.rotated(summary)
}
