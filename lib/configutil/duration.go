package configutil

import (
	"fmt"
	"time"

	"github.com/titanous/json5"
)

// Duration decodes either a string such as "400ms" or a number of
// nanoseconds.
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var value any
	err := json5.Unmarshal(data, &value)
	if err != nil {
		return err
	}
	switch v := value.(type) {
	case nil:
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("duration '%s': %w", v, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(v)
	default:
		return fmt.Errorf("duration: unexpected value %s", data)
	}
	return nil
}
