// Package jobs holds the periodic maintenance work run by the scheduler.
package jobs

import (
	"context"
	"time"

	"github.com/Dias221467/Saviya_Learn/internal/metrics"
	"github.com/sirupsen/logrus"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

// Job is one unit of scheduled work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Execute runs job with a deadline and records its outcome.
func Execute(ctx context.Context, job Job, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := job.Run(ctx)
	log := logrus.WithFields(logrus.Fields{
		"job":      job.Name(),
		"duration": time.Since(start).String(),
	})
	if err != nil {
		metrics.JobRuns.WithLabelValues(job.Name(), resultError).Inc()
		log.WithError(err).Error("Scheduled job failed")
		return err
	}
	metrics.JobRuns.WithLabelValues(job.Name(), resultOK).Inc()
	log.Debug("Scheduled job finished")
	return nil
}
