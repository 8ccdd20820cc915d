package audit

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/ggvfx/precision-color-auditor/pkg/emath"
)

// A Job is one image to audit. If Buffer is nil, the image is loaded from
// Filename by the worker.
type Job struct {
	Name     string
	Filename string
	Buffer   *Buffer
	Corners  emath.Quad
	Config   Config
}

// A BatchResult is the outcome of one job. A failed job has a nil Result,
// or a partial one for an InsufficientDataError.
type BatchResult struct {
	BatchID string
	Index   int
	Job     string
	Result  *Result
	Err     error
}

func (br BatchResult) Failed() bool { return br.Err != nil }

func (br BatchResult) String() string {
	if br.Failed() {
		return fmt.Sprintf("[%03d] %s: FAILED: %v", br.Index, br.Job, br.Err)
	}
	return fmt.Sprintf("[%03d] %s: %s", br.Index, br.Job, br.Result.Record)
}

type batchJob struct {
	Index int
	Job
}

// RunBatch audits the jobs on a pool of goroutines. A job that fails only
// produces a failed BatchResult; its siblings carry on. Cancelling ctx stops
// new jobs from starting (they come back failed with the context's error),
// but doesn't interrupt a job already running. Results are in job order.
func RunBatch(ctx context.Context, jobs []Job, nWorkers int) []BatchResult {
	batchID := uuid.New().String()
	if nWorkers < 1 {
		nWorkers = 1
	}

	var wg sync.WaitGroup
	jobsChan := make(chan batchJob, len(jobs))
	resultsChan := make(chan BatchResult, len(jobs))

	// Kick off worker pool
	for i := 0; i < nWorkers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			for job := range jobsChan {
				br := BatchResult{BatchID: batchID, Index: job.Index, Job: job.Name}
				if err := ctx.Err(); err != nil {
					br.Err = fmt.Errorf("not started: %w", err)
				} else {
					br.Result, br.Err = runJob(job.Job)
				}
				resultsChan <- br
			}
		}()
	}

	// Feed in jobs
	for i, job := range jobs {
		if job.Name == "" {
			job.Name = job.Filename
		}
		jobsChan <- batchJob{i, job}
	}

	close(jobsChan)
	wg.Wait()
	close(resultsChan)

	results := make([]BatchResult, len(jobs))
	for br := range resultsChan {
		results[br.Index] = br
	}

	failed, verbosity := 0, 0
	for i, br := range results {
		if br.Failed() {
			failed++
		}
		if v := jobs[i].Config.Verbosity; v > verbosity {
			verbosity = v
		}
	}
	if verbosity > 0 {
		log.Printf(" -- batch %s: %d jobs, %d failed\n", batchID, len(jobs), failed)
	}

	return results
}

func runJob(job Job) (*Result, error) {
	buf, cfg := job.Buffer, job.Config
	if buf == nil {
		loaded, err := LoadImage(job.Filename)
		if err != nil {
			return nil, err
		}
		if cfg, err = loaded.ResolveSpace(cfg); err != nil {
			return nil, err
		}
		buf = loaded.Buffer
	}

	res, err := Run(buf, job.Corners, cfg)
	res.Name = job.Name
	if err != nil {
		if res.Record.Patches != nil {
			return &res, err
		}
		return nil, err
	}
	return &res, nil
}
