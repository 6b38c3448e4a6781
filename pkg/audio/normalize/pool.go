package normalize

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/haivivi/avatar/pkg/audio/pcm"
)

// Job is one conversion submitted to a Pool.
type Job struct {
	Input  string
	Output string

	// Target overrides the normalizer's target when non-zero.
	Target pcm.Format
}

// Result is the outcome of one Job.
type Result struct {
	Output string
	Report *Report
	Err    error
}

// Pool runs conversions on a bounded set of worker goroutines so callers
// never do the decoding work on their own goroutine.
type Pool struct {
	n    *Normalizer
	sem  *semaphore.Weighted
	size int
}

// NewPool returns a pool with the given number of workers. Zero or a
// negative count means runtime.NumCPU().
func NewPool(n *Normalizer, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{
		n:    n,
		sem:  semaphore.NewWeighted(int64(workers)),
		size: workers,
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Convert waits for a free worker and converts input to the normalizer's
// target. Cancelling ctx aborts the wait only; once a worker has started,
// Convert returns the conversion's own result.
func (p *Pool) Convert(ctx context.Context, input, output string) (string, *Report, error) {
	r := p.run(ctx, Job{Input: input, Output: output})
	return r.Output, r.Report, r.Err
}

// ConvertAll runs every job on the pool. Results are positional. The
// returned error is the first job failure, reported after all jobs finish.
func (p *Pool) ConvertAll(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))
	var g errgroup.Group
	g.SetLimit(p.size)
	for i, job := range jobs {
		g.Go(func() error {
			results[i] = p.run(ctx, job)
			return results[i].Err
		})
	}
	return results, g.Wait()
}

func (p *Pool) run(ctx context.Context, job Job) Result {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return Result{Err: err}
	}

	done := make(chan Result, 1)
	go func() {
		defer p.sem.Release(1)
		target := job.Target
		if target == (pcm.Format{}) {
			target = p.n.target
		}
		out, report, err := p.n.Convert(job.Input, job.Output, target)
		done <- Result{Output: out, Report: report, Err: err}
	}()
	return <-done
}
