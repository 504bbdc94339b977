package media

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"mediahub/internal/components/assert"
	"mediahub/internal/components/chrono"
	"mediahub/internal/components/telemetry"
	"mediahub/internal/transport"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_sequential_segment = "sequential.segment"
	report_sequential_restart = "sequential.restart"
	report_sequential_refresh = "sequential.refresh"
)

// Sequential retrieves segments strictly in order. A segment that exhausts
// its attempts restarts retrieval from the segment before it, at most
// MaxRestarts times over the whole retrieval. Each restart resolves the
// segment list again when the job can refresh it, segments already retrieved
// are kept.
type Sequential struct {
	opts  Options
	tel   telemetry.API
	clock chrono.API
}

func NewSequential(opts Options, tel telemetry.API) *Sequential {
	opts = opts.withDefaults()
	assert.Positive("attempts", opts.Attempts)
	return &Sequential{
		opts:  opts,
		tel:   telemetry.NewScopedAPI("media", tel),
		clock: chrono.StandardImpl{},
	}
}

func (s *Sequential) SetClock(clock chrono.API) {
	s.clock = clock
}

// Retrieve either returns every segment or an error, the report never lists
// failed segments.
func (s *Sequential) Retrieve(ctx context.Context, fetcher Fetcher, job Job) ([]byte, Report, error) {
	ctx, span := tracer.Start(ctx, "Sequential.Retrieve")
	defer span.End()

	segments := job.Segments
	total := len(segments)
	span.SetAttributes(attribute.Int("segment_count", total))

	parts := make([][]byte, total)
	report := Report{}

	for i := 0; i < total; {
		body, err := s.fetch(ctx, fetcher, i, segments[i])
		if ctx.Err() != nil {
			return nil, Report{}, ctx.Err()
		}
		if err == nil {
			parts[i] = body
			job.Progress.report(i+1, total)
			i++
			continue
		}

		if report.Restarts >= *s.opts.MaxRestarts {
			failure := &RestartsExhausted{Restarts: report.Restarts, Segment: i, Last: err}
			span.RecordError(failure)
			span.SetStatus(codes.Error, "restarts exhausted")
			return nil, Report{}, failure
		}
		report.Restarts++
		s.tel.ReportWarning(report_sequential_restart, fmt.Errorf("segment %d: %w", i, err), report.Restarts)
		i = max(i-1, 0)

		if job.Refresh == nil {
			continue
		}
		fresh, err := job.Refresh(ctx)
		if ctx.Err() != nil {
			return nil, Report{}, ctx.Err()
		}
		switch {
		case err != nil:
			s.tel.ReportWarning(report_sequential_refresh, err)
		case len(fresh) != total:
			s.tel.ReportWarning(report_sequential_refresh, "segment count changed", total, len(fresh))
		default:
			segments = fresh
			report.Refreshes++
		}
	}

	span.SetAttributes(
		attribute.Int("restarts", report.Restarts),
		attribute.Int("refreshes", report.Refreshes),
	)
	return bytes.Join(parts, nil), report, nil
}

func (s *Sequential) fetch(ctx context.Context, fetcher Fetcher, index int, target string) ([]byte, error) {
	var last error
	for attempt := 0; attempt < s.opts.Attempts; attempt++ {
		if attempt > 0 {
			err := s.clock.Sleep(ctx, s.opts.Delay)
			if err != nil {
				return nil, err
			}
		}

		res, err := fetcher.Call(ctx, transport.Request{
			Target:  target,
			Method:  http.MethodGet,
			Timeout: s.opts.SegmentTimeout,
		})
		if err == nil && res.IsSuccess() {
			segmentsFetched.Add(ctx, 1)
			segmentBytes.Record(ctx, int64(len(res.Body)))
			return res.Body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err == nil {
			err = &transport.HttpStatusFailure{Method: http.MethodGet, URL: target, StatusCode: res.StatusCode}
		}

		last = err
		segmentsFailed.Add(ctx, 1)
		s.tel.ReportWarning(report_sequential_segment, err, index, attempt+1)
	}
	return nil, last
}
