package broker

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"trafficpulse-go/internal/config"
)

// Job is one pending broker call for one camera.
type Job struct {
	Camera string
	Call   func(ctx context.Context) error
}

// JobResult pairs a job's camera with its outcome. A failed job never aborts
// its siblings.
type JobResult struct {
	Camera string
	Err    error
}

// Dispatcher runs broker calls either sequentially or through a bounded
// worker pool, per configuration.
type Dispatcher struct {
	mode    string
	workers int
	log     zerolog.Logger
}

func NewDispatcher(cfg config.DispatchConfig, log zerolog.Logger) *Dispatcher {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Dispatcher{mode: cfg.Mode, workers: workers, log: log}
}

// Dispatch executes all jobs and returns one result per job, in job order.
// Per-job failures are captured, logged and returned; there is no retry
// inside a single dispatch.
func (d *Dispatcher) Dispatch(ctx context.Context, jobs []Job) []JobResult {
	if len(jobs) == 0 {
		return nil
	}
	if d.mode == "sequential" {
		return d.sequential(ctx, jobs)
	}
	return d.concurrent(ctx, jobs)
}

func (d *Dispatcher) sequential(ctx context.Context, jobs []Job) []JobResult {
	results := make([]JobResult, len(jobs))
	for i, job := range jobs {
		results[i] = d.run(ctx, job)
	}
	return results
}

func (d *Dispatcher) concurrent(ctx context.Context, jobs []Job) []JobResult {
	results := make([]JobResult, len(jobs))
	indexes := make(chan int)

	var wg sync.WaitGroup
	workers := d.workers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = d.run(ctx, jobs[i])
			}
		}()
	}

	for i := range jobs {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return results
}

func (d *Dispatcher) run(ctx context.Context, job Job) JobResult {
	err := job.Call(ctx)
	if err != nil {
		d.log.Warn().Err(err).Str("camera_ref", job.Camera).Msg("Broker dispatch failed")
	}
	return JobResult{Camera: job.Camera, Err: err}
}
