package media

import (
	"context"
	"time"

	"mediahub/internal/components/telemetry"
	"mediahub/lib/configutil"

	"github.com/titanous/json5"
)

// Durations decode from strings such as "400ms" as well as from integer
// nanoseconds.
type Options struct {
	// Attempts is the per segment retry budget of the sequential strategy.
	Attempts       int           `json:"attempts"`
	Delay          time.Duration `json:"delay"`
	SegmentTimeout time.Duration `json:"segment_timeout"`
	// MaxRestarts bounds how many times the sequential strategy restarts the
	// tail of the segment list. Nil selects the default, 0 disables restarts.
	MaxRestarts *int `json:"max_restarts"`

	Workers       int           `json:"workers"`
	WorkerTimeout time.Duration `json:"worker_timeout"`
}

func DefaultOptions() Options {
	restarts := 3
	return Options{
		Attempts:       5,
		Delay:          500 * time.Millisecond,
		SegmentTimeout: 4 * time.Second,
		MaxRestarts:    &restarts,
		Workers:        20,
		WorkerTimeout:  10 * time.Second,
	}
}

func (o *Options) UnmarshalJSON(data []byte) error {
	type plain Options
	aux := struct {
		*plain
		Delay          configutil.Duration `json:"delay"`
		SegmentTimeout configutil.Duration `json:"segment_timeout"`
		WorkerTimeout  configutil.Duration `json:"worker_timeout"`
	}{
		plain:          (*plain)(o),
		Delay:          configutil.Duration(o.Delay),
		SegmentTimeout: configutil.Duration(o.SegmentTimeout),
		WorkerTimeout:  configutil.Duration(o.WorkerTimeout),
	}
	err := json5.Unmarshal(data, &aux)
	if err != nil {
		return err
	}
	o.Delay = aux.Delay.Std()
	o.SegmentTimeout = aux.SegmentTimeout.Std()
	o.WorkerTimeout = aux.WorkerTimeout.Std()
	return nil
}

// Progress is invoked with the number of completed segments out of total.
type Progress func(done, total int)

func (p Progress) report(done, total int) {
	if p != nil {
		p(done, total)
	}
}

// Report describes the outcome of a retrieval.
type Report struct {
	// Failed holds the indexes of the segments left empty in the artifact.
	Failed []int
	// Restarts counts the restarts of the sequential strategy.
	Restarts int
	// Refreshes counts how many times the segment list was resolved again.
	Refreshes int
}

// Complete reports whether every segment made it into the artifact.
func (r Report) Complete() bool {
	return len(r.Failed) == 0
}

// Strategy retrieves the ordered segment list of a job into a single
// artifact.
type Strategy interface {
	Retrieve(ctx context.Context, fetcher Fetcher, job Job) ([]byte, Report, error)
}

// NewStrategy returns the concurrent strategy unless sequential is set.
func NewStrategy(opts Options, sequential bool, tel telemetry.API) Strategy {
	if sequential {
		return NewSequential(opts, tel)
	}
	return NewConcurrent(opts, tel)
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Attempts <= 0 {
		o.Attempts = d.Attempts
	}
	if o.Delay < 0 {
		o.Delay = 0
	}
	if o.SegmentTimeout <= 0 {
		o.SegmentTimeout = d.SegmentTimeout
	}
	if o.MaxRestarts == nil {
		o.MaxRestarts = d.MaxRestarts
	}
	if *o.MaxRestarts < 0 {
		none := 0
		o.MaxRestarts = &none
	}
	if o.Workers <= 0 {
		o.Workers = d.Workers
	}
	if o.WorkerTimeout <= 0 {
		o.WorkerTimeout = d.WorkerTimeout
	}
	return o
}
