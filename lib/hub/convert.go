package hub

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Payloads of the platform are loose about numbers, a count can come as a
// number or as a string with thousands separators.

func toFloat(v any) (float64, error) {
	switch value := v.(type) {
	case float64:
		return value, nil
	case int:
		return float64(value), nil
	case json.Number:
		return value.Float64()
	case string:
		cleaned := strings.NewReplacer(",", "", " ", "").Replace(value)
		return strconv.ParseFloat(cleaned, 64)
	case nil:
		return 0, fmt.Errorf("missing number")
	}
	return 0, fmt.Errorf("unexpected number type %T", v)
}

func toInt(v any) (int, error) {
	f, err := toFloat(v)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func toString(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func toBool(v any) bool {
	switch value := v.(type) {
	case bool:
		return value
	case string:
		return value == "true" || value == "1"
	case float64:
		return value != 0
	}
	return false
}

// names collects the given field out of a list of records.
func names(v any, field string) []string {
	records, _ := v.([]any)
	out := make([]string, 0, len(records))
	for _, r := range records {
		record, ok := r.(map[string]any)
		if !ok {
			continue
		}
		name := toString(record[field])
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// parseClock parses "SS", "MM:SS" and "HH:MM:SS".
func parseClock(value string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid duration '%s'", value)
	}
	units := []time.Duration{time.Second, time.Minute, time.Hour}
	var total time.Duration
	for i := range parts {
		n, err := strconv.Atoi(parts[len(parts)-1-i])
		if err != nil {
			return 0, fmt.Errorf("invalid duration '%s': %w", value, err)
		}
		total += time.Duration(n) * units[i]
	}
	return total, nil
}
