package media

import (
	"bytes"
	"context"
	"sync"

	"mediahub/internal/components/assert"
	"mediahub/internal/components/telemetry"
	"mediahub/internal/transport"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const report_concurrent_segment = "concurrent.segment"

// Concurrent retrieves segments with a bounded pool of workers, one strict
// fetch per segment without retry. Segments that fail are left empty in the
// assembled artifact.
type Concurrent struct {
	opts Options
	tel  telemetry.API
}

func NewConcurrent(opts Options, tel telemetry.API) *Concurrent {
	opts = opts.withDefaults()
	assert.Positive("workers", opts.Workers)
	return &Concurrent{
		opts: opts,
		tel:  telemetry.NewScopedAPI("media", tel),
	}
}

type segmentResult struct {
	body []byte
	ok   bool
}

// Retrieve never refreshes the segment list, failed segments are listed in
// the report.
func (c *Concurrent) Retrieve(ctx context.Context, fetcher Fetcher, job Job) ([]byte, Report, error) {
	ctx, span := tracer.Start(ctx, "Concurrent.Retrieve")
	defer span.End()

	segments := job.Segments
	progress := job.Progress
	span.SetAttributes(
		attribute.Int("segment_count", len(segments)),
		attribute.Int("workers", c.opts.Workers),
	)

	total := len(segments)
	results := make([]segmentResult, total)

	var mutex sync.Mutex
	arrived := 0

	group := errgroup.Group{}
	group.SetLimit(c.opts.Workers)
	for i, target := range segments {
		if ctx.Err() != nil {
			break
		}
		i, target := i, target
		group.Go(func() error {
			body, err := c.fetch(ctx, fetcher, target)
			if err != nil {
				c.tel.ReportWarning(report_concurrent_segment, err, i)
			} else {
				results[i] = segmentResult{body: body, ok: true}
			}

			mutex.Lock()
			defer mutex.Unlock()
			arrived++
			progress.report(arrived, total)
			return nil
		})
	}
	group.Wait()

	err := ctx.Err()
	if err != nil {
		return nil, Report{}, err
	}

	report := Report{}
	parts := make([][]byte, total)
	for i, result := range results {
		if !result.ok {
			report.Failed = append(report.Failed, i)
			continue
		}
		parts[i] = result.body
	}
	span.SetAttributes(attribute.Int("failed_count", len(report.Failed)))
	if len(report.Failed) > 0 {
		c.tel.ReportWarning(report_concurrent_segment, "segments missing from artifact", report.Failed)
	}
	return bytes.Join(parts, nil), report, nil
}

func (c *Concurrent) fetch(ctx context.Context, fetcher Fetcher, target string) ([]byte, error) {
	req := transport.Get(target)
	req.Timeout = c.opts.WorkerTimeout

	res, err := fetcher.Call(ctx, req)
	if err != nil {
		segmentsFailed.Add(ctx, 1)
		return nil, err
	}
	segmentsFetched.Add(ctx, 1)
	segmentBytes.Record(ctx, int64(len(res.Body)))
	return res.Body, nil
}
