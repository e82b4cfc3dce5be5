package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	runs atomic.Int32
}

func (j *countingJob) Name() string { return "counting" }

func (j *countingJob) Run(context.Context) error {
	j.runs.Add(1)
	return nil
}

func TestNewRejectsBadSpec(t *testing.T) {
	_, err := New(Entry{Spec: "every tuesday", Job: &countingJob{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "counting")
}

func TestSchedulerRunsJobs(t *testing.T) {
	job := &countingJob{}
	s, err := New(Entry{Spec: "@every 1s", Job: job})
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return job.runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
