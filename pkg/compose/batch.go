package compose

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// Job is one independent render. ContentPath selects RenderWithContent.
type Job struct {
	Name           string
	TemplatePath   string
	ContentPath    string
	PlaceholderKey string
	Tokens         Tokens
	Partials       Partials
}

// Result pairs a Job's output with its error.
type Result struct {
	Name   string
	Output string
	Err    error
}

// RenderBatch renders jobs concurrently, at most limit at a time (unbounded
// when limit <= 0). Results are returned in job order. A failed job does not
// stop the others; all failures are aggregated into the returned error.
func (c *Composer) RenderBatch(ctx context.Context, jobs []Job, limit int) ([]Result, error) {
	results := make([]Result, len(jobs))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, job := range jobs {
		g.Go(func() error {
			var (
				out string
				err error
			)
			if job.ContentPath != "" {
				out, err = c.RenderWithContent(ctx, job.TemplatePath, job.Tokens, job.ContentPath, job.PlaceholderKey, job.Partials)
			} else {
				out, err = c.Render(ctx, job.TemplatePath, job.Tokens, job.Partials)
			}
			results[i] = Result{Name: job.Name, Output: out, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	var merr *multierror.Error
	for i, res := range results {
		if res.Err == nil {
			continue
		}
		name := res.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		merr = multierror.Append(merr, fmt.Errorf("job %s: %w", name, res.Err))
	}
	return results, merr.ErrorOrNil()
}
