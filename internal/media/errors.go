package media

import (
	"errors"
	"fmt"
)

// ErrNoQualities is returned when an entity exposes no numeric quality.
var ErrNoQualities = errors.New("no quality available")

// ManifestUnavailable is returned when a manifest cannot be fetched or names
// no nested index.
type ManifestUnavailable struct {
	URL string
	Err error
}

func (e *ManifestUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("manifest unavailable '%s': %v", e.URL, e.Err)
	}
	return fmt.Sprintf("manifest unavailable '%s': no index referenced", e.URL)
}

func (e *ManifestUnavailable) Unwrap() error {
	return e.Err
}

// AmbiguousIndex is returned when a master manifest references more than one
// nested index.
type AmbiguousIndex struct {
	URL   string
	Count int
}

func (e *AmbiguousIndex) Error() string {
	return fmt.Sprintf("master manifest '%s' references %d indexes, expected exactly one", e.URL, e.Count)
}

// RestartsExhausted is returned by the sequential strategy once it restarted
// the tail of the segment list more than allowed.
type RestartsExhausted struct {
	Restarts int
	Segment  int
	Last     error
}

func (e *RestartsExhausted) Error() string {
	return fmt.Sprintf("segment %d still failing after %d restarts: %v", e.Segment, e.Restarts, e.Last)
}

func (e *RestartsExhausted) Unwrap() error {
	return e.Last
}

// IncompleteArtifact is returned once an artifact was written with some of
// its segments missing.
type IncompleteArtifact struct {
	Path   string
	Failed []int
	Total  int
}

func (e *IncompleteArtifact) Error() string {
	return fmt.Sprintf("artifact '%s' is missing %d of %d segments: %v", e.Path, len(e.Failed), e.Total, e.Failed)
}
