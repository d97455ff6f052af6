// internal/app/system/tasks/tasks.go
package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is a named periodic task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Runner drives a set of jobs on their intervals until stopped.
type Runner struct {
	jobs   []Job
	log    *zap.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewRunner(logger *zap.Logger, jobs ...Job) *Runner {
	return &Runner{
		jobs:   jobs,
		log:    logger,
		stopCh: make(chan struct{}),
	}
}

// Start launches one goroutine per job.
func (r *Runner) Start() {
	for _, job := range r.jobs {
		r.wg.Add(1)
		go r.loop(job)
		r.log.Info("background job started",
			zap.String("job", job.Name),
			zap.Duration("interval", job.Interval))
	}
}

// Stop signals every job loop to stop and waits for them to finish.
// An in-flight run completes before its loop exits.
func (r *Runner) Stop() {
	close(r.stopCh)
	r.wg.Wait()
	r.log.Info("background jobs stopped")
}

func (r *Runner) loop(job Job) {
	defer r.wg.Done()

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := job.Run(ctx); err != nil {
				r.log.Error("background job failed",
					zap.String("job", job.Name),
					zap.Error(err))
			}
			cancel()
		}
	}
}
