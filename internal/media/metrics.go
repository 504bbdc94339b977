package media

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("mediahub.media")

var segmentsFetched, _ = meter.Int64Counter(
	"segments_fetched",
	metric.WithDescription("Segments retrieved by a download strategy."),
)
var segmentsFailed, _ = meter.Int64Counter(
	"segments_failed",
	metric.WithDescription("Segment fetches that failed, retried ones included."),
)
var segmentBytes, _ = meter.Int64Histogram(
	"segment_bytes",
	metric.WithUnit("By"),
)
