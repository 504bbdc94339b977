package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Refresher resolves the segment list of a job again, the urls of the previous
// list may have expired.
type Refresher func(ctx context.Context) ([]string, error)

// Job is a single retrieval of a media entity into a file, it is never
// persisted.
type Job struct {
	ID          string
	Key         string
	Quality     Quality
	Segments    []string
	Destination string
	Progress    Progress
	// Refresh is optional, without it restarts reuse Segments.
	Refresh Refresher
}

func NewJob(key string, quality Quality, segments []string, destination string, progress Progress) Job {
	return Job{
		ID:          uuid.NewString(),
		Key:         key,
		Quality:     quality,
		Segments:    segments,
		Destination: destination,
		Progress:    progress,
	}
}

// ResolveDestination turns a directory into "<dir>/<name>", other paths are
// returned as is.
func ResolveDestination(path, name string) string {
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		return filepath.Join(path, name)
	}
	return path
}

// WriteAtomic writes contents to a temporary file next to path and renames
// it over path.
func WriteAtomic(path string, contents []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.part")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(contents)
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Download retrieves the segments of a job with the given strategy and writes
// the artifact, returning its path. An artifact with missing segments is still
// written, the returned error is then an *IncompleteArtifact.
func Download(ctx context.Context, fetcher Fetcher, job Job, strategy Strategy) (string, error) {
	ctx, span := tracer.Start(ctx, "Download")
	defer span.End()

	path := ResolveDestination(job.Destination, job.Key+".mp4")
	span.SetAttributes(
		attribute.String("job_id", job.ID),
		attribute.String("key", job.Key),
		attribute.String("quality", job.Quality.String()),
		attribute.String("path", path),
	)

	artifact, report, err := strategy.Retrieve(ctx, fetcher, job)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to retrieve segments")
		return "", fmt.Errorf("retrieve %s: %w", job.Key, err)
	}

	err = WriteAtomic(path, artifact)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write artifact")
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	span.SetAttributes(attribute.Int("artifact_size", len(artifact)))

	if !report.Complete() {
		incomplete := &IncompleteArtifact{Path: path, Failed: report.Failed, Total: len(job.Segments)}
		span.RecordError(incomplete)
		span.SetStatus(codes.Error, "artifact incomplete")
		return path, incomplete
	}
	return path, nil
}
