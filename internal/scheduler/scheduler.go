// Package scheduler runs the periodic jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Dias221467/Saviya_Learn/internal/jobs"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const jobTimeout = 5 * time.Minute

// Entry pairs a job with its cron spec.
type Entry struct {
	Spec string
	Job  jobs.Job
}

type Scheduler struct {
	cron *cron.Cron
}

// New registers every entry. A job still running when its next tick fires
// is skipped rather than overlapped.
func New(entries ...Entry) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	for _, e := range entries {
		job := e.Job
		if _, err := c.AddFunc(e.Spec, func() {
			_ = jobs.Execute(context.Background(), job, jobTimeout)
		}); err != nil {
			return nil, fmt.Errorf("schedule %s (%q): %w", job.Name(), e.Spec, err)
		}
		logrus.WithFields(logrus.Fields{"job": job.Name(), "spec": e.Spec}).Info("Job scheduled")
	}
	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		logrus.Warn("Scheduler stopped before running jobs finished")
	}
}
