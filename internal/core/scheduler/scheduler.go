package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is a named unit of periodic work.
type Job struct {
	Name    string
	Spec    string // six fields, seconds first
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

func New(logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds(), cron.WithLocation(time.UTC)),
		logger: logger,
	}
}

// Add registers j; a panicking or failing run is logged and the schedule keeps going.
func (s *Scheduler) Add(j Job) error {
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	_, err := s.cron.AddFunc(j.Spec, func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("cron job panic", zap.String("job", j.Name), zap.Any("panic", r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		start := time.Now()
		if err := j.Run(ctx); err != nil {
			s.logger.Warn("cron job failed", zap.String("job", j.Name), zap.Error(err))
			return
		}
		s.logger.Info("cron job done", zap.String("job", j.Name), zap.Duration("took", time.Since(start)))
	})
	if err != nil {
		return fmt.Errorf("register cron job %s (%s): %w", j.Name, j.Spec, err)
	}
	s.logger.Info("cron job registered", zap.String("job", j.Name), zap.String("spec", j.Spec))
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop waits up to 5s for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
	}
}
