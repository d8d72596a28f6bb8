package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/sirupsen/logrus"
)

// ErrAlreadyRunning is returned by Start on a scheduler that is running.
var ErrAlreadyRunning = errors.New("scheduler already running")

// Job is one unit of periodic work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler runs a job whenever it is due. It wakes every CheckEvery, runs
// the job when Interval has passed since the last successful run and waits
// RetryAfter instead after a failure.
type Scheduler struct {
	job    Job
	config shared.SchedulerConfig
	clock  shared.Clock

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	lastRun time.Time
}

func NewScheduler(job Job, config shared.SchedulerConfig, clock shared.Clock) *Scheduler {
	config.ApplyDefaults()
	if clock == nil {
		clock = shared.RealClock{}
	}
	return &Scheduler{job: job, config: config, clock: clock}
}

// Start launches the loop in a goroutine. The loop ends when Stop is called
// or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger := logrus.WithFields(logrus.Fields{
		"component": "Scheduler",
		"job":       s.job.Name(),
	})

	if s.done != nil {
		logger.Warn("Scheduler is already running")
		return ErrAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go s.loop(loopCtx, done)

	logger.WithFields(logrus.Fields{
		"interval":    s.config.Interval,
		"check_every": s.config.CheckEvery,
		"retry_after": s.config.RetryAfter,
	}).Info("Scheduler started")
	return nil
}

// Stop cancels the loop, including a run in progress, and waits for it to exit
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if done == nil {
		return
	}
	cancel()
	<-done

	logrus.WithFields(logrus.Fields{
		"component": "Scheduler",
		"job":       s.job.Name(),
	}).Info("Scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done != nil
}

// ShouldUpdate is true before the first successful run and once Interval has
// elapsed since it started.
func (s *Scheduler) ShouldUpdate() bool {
	s.mu.Lock()
	lastRun := s.lastRun
	s.mu.Unlock()

	if lastRun.IsZero() {
		return true
	}
	return s.clock.Now().Sub(lastRun) >= s.config.Interval
}

// LastRun is the start time of the last successful run, zero if none
func (s *Scheduler) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		if s.done == done {
			s.cancel()
			s.cancel, s.done = nil, nil
		}
		s.mu.Unlock()
		close(done)
	}()

	var timer shared.Timer
	for {
		wait := s.config.CheckEvery
		if s.ShouldUpdate() {
			if err := s.runOnce(ctx); err != nil {
				wait = s.config.RetryAfter
			}
		}
		if ctx.Err() != nil {
			return
		}

		if timer == nil {
			timer = s.clock.NewTimer(wait)
		} else {
			timer.Reset(wait)
		}

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C():
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) (err error) {
	logger := logrus.WithFields(logrus.Fields{
		"component": "Scheduler",
		"job":       s.job.Name(),
	})
	startedAt := s.clock.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
		if err != nil {
			if ctx.Err() == nil {
				logger.WithError(err).WithField("retry_after", s.config.RetryAfter).Error("Scheduled job failed")
			}
			return
		}
		s.mu.Lock()
		s.lastRun = startedAt
		s.mu.Unlock()
	}()

	logger.Debug("Running scheduled job")
	return s.job.Run(ctx)
}
