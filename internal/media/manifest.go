package media

import (
	"context"
	"net/url"
	"strings"

	"mediahub/internal/transport"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("mediahub.media")

// Fetcher is the subset of the transport used for manifests and segments.
type Fetcher interface {
	Call(ctx context.Context, req transport.Request) (transport.Response, error)
}

// references returns the non-empty, non-comment lines of a manifest in order.
func references(manifest string) []string {
	var out []string
	for _, line := range strings.Split(manifest, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// manifestBase is the prefix segment references are relative to.
func manifestBase(masterURL string) string {
	before, _, found := strings.Cut(masterURL, "master.m3u8")
	if found {
		return before
	}
	slash := strings.LastIndex(masterURL, "/")
	if slash < 0 {
		return ""
	}
	return masterURL[:slash+1]
}

func join(base, ref string) string {
	parsed, err := url.Parse(ref)
	if err == nil && parsed.IsAbs() {
		return ref
	}
	return base + ref
}

// ResolveManifest expands a master manifest into the ordered list of segment
// urls. The master must reference exactly one index manifest.
func ResolveManifest(ctx context.Context, fetcher Fetcher, masterURL string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "ResolveManifest")
	defer span.End()
	span.SetAttributes(attribute.String("master_url", masterURL))

	res, err := fetcher.Call(ctx, transport.Get(masterURL))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch master manifest")
		return nil, &ManifestUnavailable{URL: masterURL, Err: err}
	}

	indexes := references(res.Text())
	switch {
	case len(indexes) == 0:
		span.SetStatus(codes.Error, "master manifest references no index")
		return nil, &ManifestUnavailable{URL: masterURL}
	case len(indexes) > 1:
		span.SetStatus(codes.Error, "master manifest references several indexes")
		return nil, &AmbiguousIndex{URL: masterURL, Count: len(indexes)}
	}

	base := manifestBase(masterURL)
	indexURL := join(base, indexes[0])
	res, err = fetcher.Call(ctx, transport.Get(indexURL))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch index manifest")
		return nil, &ManifestUnavailable{URL: indexURL, Err: err}
	}

	refs := references(res.Text())
	segments := make([]string, len(refs))
	for i, ref := range refs {
		segments[i] = join(base, ref)
	}
	span.SetAttributes(attribute.Int("segment_count", len(segments)))
	return segments, nil
}
