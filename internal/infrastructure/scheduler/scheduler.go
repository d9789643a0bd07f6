package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// ErrorHandler receives the error a job returned.
type ErrorHandler func(name string, err error)

// Scheduler runs jobs on six-field cron specs (seconds first). A job never
// overlaps with its own previous run.
type Scheduler struct {
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	onError ErrorHandler
}

func New(onError ErrorHandler) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	if onError == nil {
		onError = func(string, error) {}
	}
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		ctx:     ctx,
		cancel:  cancel,
		onError: onError,
	}
}

func (s *Scheduler) AddJob(name, spec string, job func(context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := job(s.ctx); err != nil {
			s.onError(name, err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", spec, name, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs to return.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	s.cancel()
	<-done.Done()
}
