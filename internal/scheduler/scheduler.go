package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler runs background maintenance and reporting jobs.
type Scheduler struct {
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	log    logrus.FieldLogger
}

func New(log logrus.FieldLogger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.Recover(cron.DefaultLogger))),
		ctx:    ctx,
		cancel: cancel,
		log:    log,
	}
}

// Every runs job at a fixed interval, rounded to whole seconds by cron.
func (s *Scheduler) Every(name string, interval time.Duration, job func()) error {
	if interval <= 0 {
		return fmt.Errorf("job %q: interval must be positive", name)
	}
	s.cron.Schedule(cron.Every(interval), cron.FuncJob(job))
	s.log.WithFields(logrus.Fields{"job": name, "interval": interval.String()}).Debug("job scheduled")
	return nil
}

// Cron runs job on a standard five-field cron spec (UTC). Failures are logged.
func (s *Scheduler) Cron(name, spec string, job func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(spec, func() {
		if err := job(s.ctx); err != nil {
			s.log.WithError(err).WithField("job", name).Error("❌ scheduled job failed")
		}
	})
	if err != nil {
		return fmt.Errorf("job %q: invalid cron spec %q: %w", name, spec, err)
	}
	s.log.WithFields(logrus.Fields{"job": name, "spec": spec}).Debug("job scheduled")
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.WithField("jobs", len(s.cron.Entries())).Info("📅 scheduler started")
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.log.Info("📅 scheduler stopped")
}
