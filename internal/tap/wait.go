package tap

import (
	"context"
	"time"

	"github.com/astrolab/voquery/internal/domain"
	"github.com/astrolab/voquery/internal/domain/entity"
)

// WaitOptions controls job polling
type WaitOptions struct {
	// Interval is the first poll delay; default 1s
	Interval time.Duration
	// MaxInterval caps the growing delay; default 10s
	MaxInterval time.Duration
	// Timeout bounds the whole wait; zero means wait until ctx is done
	Timeout time.Duration
}

func (o WaitOptions) withDefaults() WaitOptions {
	if o.Interval <= 0 {
		o.Interval = time.Second
	}
	if o.MaxInterval <= 0 {
		o.MaxInterval = 10 * time.Second
	}
	if o.MaxInterval < o.Interval {
		o.MaxInterval = o.Interval
	}
	return o
}

// WaitForJob polls the job phase until it reaches a terminal state. The
// poll delay grows by half each round, capped at MaxInterval. A COMPLETED
// job is returned; ERROR and ABORTED become typed errors carrying the
// server error summary.
func (c *Client) WaitForJob(ctx context.Context, jobID string, opts WaitOptions) (*entity.Job, error) {
	opts = opts.withDefaults()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	delay := opts.Interval
	for {
		phase, err := c.Phase(ctx, jobID)
		if err != nil {
			return nil, err
		}
		c.logger.Debug("job polled", "job_id", jobID, "phase", phase)

		if phase.IsTerminal() {
			job, err := c.GetJob(ctx, jobID)
			if err != nil {
				return nil, err
			}
			switch job.Phase {
			case entity.PhaseCompleted:
				return job, nil
			case entity.PhaseError:
				return nil, domain.NewJobFailedError(job.JobID, job.ErrorSummary)
			case entity.PhaseAborted:
				return nil, domain.NewJobAbortedError(job.JobID)
			default:
				// phase moved between the two requests; poll again
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}

		delay = delay * 3 / 2
		if delay > opts.MaxInterval {
			delay = opts.MaxInterval
		}
	}
}

// RunAndWait submits a query, waits for completion, and fetches results
func (c *Client) RunAndWait(ctx context.Context, adql string, opts WaitOptions) (*entity.Table, error) {
	job, err := c.SubmitJob(ctx, adql)
	if err != nil {
		return nil, err
	}
	if !job.Phase.IsTerminal() {
		job, err = c.WaitForJob(ctx, job.JobID, opts)
		if err != nil {
			return nil, err
		}
	}
	if job.Phase == entity.PhaseError {
		return nil, domain.NewJobFailedError(job.JobID, job.ErrorSummary)
	}
	if job.Phase == entity.PhaseAborted {
		return nil, domain.NewJobAbortedError(job.JobID)
	}
	return c.JobResults(ctx, job)
}
