package cron

import (
	"context"
	"time"
)

// Job is one unit of scheduled work. Name must be stable: it keys metrics,
// logs and the per-job cadence.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry is the ordered set of jobs a cron worker runs. Names are unique;
// a second job with a taken name is dropped.
type Registry struct {
	jobs  []Job
	names map[string]struct{}
}

func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{names: make(map[string]struct{}, len(jobs))}
	for _, job := range jobs {
		if job == nil {
			continue
		}
		if _, taken := r.names[job.Name()]; taken {
			continue
		}
		r.names[job.Name()] = struct{}{}
		r.jobs = append(r.jobs, job)
	}
	return r
}

// Jobs returns a copy in registration order.
func (r *Registry) Jobs() []Job {
	return append([]Job(nil), r.jobs...)
}

type cadenced struct {
	Job
	every time.Duration
}

// Every limits job to one run per d; without it a job runs on every tick.
func Every(job Job, d time.Duration) Job {
	if job == nil {
		return nil
	}
	return cadenced{Job: job, every: d}
}

func cadenceOf(job Job) time.Duration {
	if c, ok := job.(cadenced); ok {
		return c.every
	}
	return 0
}
