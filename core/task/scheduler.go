package task

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/kazi/core"
)

// Scheduler invokes a sweep once per calendar day at a fixed local
// wall-clock time, until its context is cancelled. There is no catch-up:
// fires missed while the process is down are skipped, not queued.
type Scheduler struct {
	hour    int
	minute  int
	sweep   func(now time.Time)
	logger  core.Logger
	nowFunc func() time.Time // mockable
}

func NewScheduler(conf core.ReminderConfig, sweep func(now time.Time), logger core.Logger) *Scheduler {
	return &Scheduler{
		hour:    conf.Hour,
		minute:  conf.Minute,
		sweep:   sweep,
		logger:  logger,
		nowFunc: time.Now,
	}
}

// Start launches the scheduling loop in its own goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	s.logger.Info(fmt.Sprintf("reminder scheduler started; firing daily at %02d:%02d", s.hour, s.minute))

	for {
		now := s.nowFunc()
		timer := time.NewTimer(s.nextFire(now).Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("reminder scheduler stopped")
			return
		case <-timer.C:
			s.fire(s.nowFunc())
		}
	}
}

// nextFire returns the next hour:minute occurrence strictly after now.
func (s *Scheduler) nextFire(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// fire runs one sweep; a panicking sweep must not kill the loop.
func (s *Scheduler) fire(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(fmt.Sprintf("reminder sweep panicked: %v", r))
		}
	}()
	s.sweep(now)
}
