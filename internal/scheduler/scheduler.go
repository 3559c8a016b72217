// Package scheduler runs a job on a fixed interval.
//
// Ticks come from a robfig/cron scheduler using cron.Every. Every run, whether
// started by a tick or by Trigger, goes through a singleflight group: a run
// requested while another is in flight waits for that run and shares its
// result instead of starting a second one.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/pfrederiksen/screening-watch/internal/logger"
)

const runKey = "run"

// ErrStarted is returned by Start when the scheduler is already running
var ErrStarted = errors.New("scheduler already started")

// Runner is a unit of work the scheduler invokes
type Runner interface {
	Run(ctx context.Context) error
}

// RunnerFunc adapts a function to Runner
type RunnerFunc func(ctx context.Context) error

// Run calls f(ctx)
func (f RunnerFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Scheduler invokes a Runner every interval
type Scheduler struct {
	runner   Runner
	interval time.Duration
	log      *logger.Logger
	cron     *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
	group  singleflight.Group
	wg     sync.WaitGroup

	mu      sync.Mutex
	entryID cron.EntryID
	started bool
	stopped bool
}

// New creates a scheduler. cron.Every rounds interval down to whole seconds,
// with a minimum of one second.
func New(runner Runner, interval time.Duration, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Default()
	}
	log = log.With(logger.Fields{"component": "scheduler"})

	cl := logger.CronLogger(log)
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		runner:   runner,
		interval: interval,
		log:      log,
		cron:     cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl))),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start registers the job and starts ticking. With runImmediately the first
// run starts right away instead of one interval from now.
func (s *Scheduler) Start(runImmediately bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrStarted
	}
	s.started = true

	s.entryID = s.cron.Schedule(cron.Every(s.interval), cron.FuncJob(func() {
		_ = s.run("tick")
	}))
	s.cron.Start()

	s.log.Info("Scheduler started", logger.Fields{
		"interval":        s.interval.String(),
		"run_immediately": runImmediately,
	})

	if runImmediately {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			_ = s.run("startup")
		}()
	}

	return nil
}

// Trigger runs the job now and returns its error. If a run is already in
// flight, Trigger waits for it and returns its result.
func (s *Scheduler) Trigger() error {
	return s.run("trigger")
}

// NextRun returns the time of the next tick, or the zero time when the
// scheduler is not running
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started || s.stopped {
		return time.Time{}
	}
	return s.cron.Entry(s.entryID).Next
}

// Stop cancels the context passed to runs, then waits for in-flight runs
// to return. Stop is safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()

	s.log.Info("Scheduler stopped", nil)
}

func (s *Scheduler) run(source string) error {
	_, err, shared := s.group.Do(runKey, func() (interface{}, error) {
		if err := s.ctx.Err(); err != nil {
			return nil, err
		}

		s.log.Debug("Run starting", logger.Fields{"source": source})
		return nil, s.runner.Run(s.ctx)
	})

	if shared {
		s.log.Debug("Run result shared with concurrent callers", logger.Fields{"source": source})
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		s.log.Error("Run failed", logger.Fields{"source": source}, err)
	}
	return err
}
