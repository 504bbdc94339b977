package media

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Definitions maps numeric quality levels (ex. 720) to the url of their
// master manifest.
type Definitions map[int]string

// Quality is a quality request, either symbolic or numeric.
type Quality struct {
	symbol string
	value  int
}

var (
	Highest = Quality{symbol: "highest"}
	Lowest  = Quality{symbol: "lowest"}
	Median  = Quality{symbol: "median"}
)

// Exactly requests the given level, or the closest one available.
func Exactly(level int) Quality {
	return Quality{value: level}
}

// ParseQuality accepts "highest" ("best"), "lowest" ("worst"), "median"
// ("half", "middle") or a number, optionally suffixed with "p".
func ParseQuality(value string) (Quality, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "highest", "best", "":
		return Highest, nil
	case "lowest", "worst":
		return Lowest, nil
	case "median", "half", "middle":
		return Median, nil
	}

	level, err := strconv.Atoi(strings.TrimSuffix(normalized, "p"))
	if err != nil || level <= 0 {
		return Quality{}, fmt.Errorf("invalid quality '%s'", value)
	}
	return Exactly(level), nil
}

func (q Quality) String() string {
	if q.symbol != "" {
		return q.symbol
	}
	return strconv.Itoa(q.value) + "p"
}

// Level picks the quality level out of the available ones.
//
// Median is the key at rank len/2 of the ascending keys. A numeric request
// without an exact match picks the closest key, ties going to the lower one.
func (q Quality) Level(defs Definitions) (int, error) {
	if len(defs) == 0 {
		return 0, ErrNoQualities
	}
	levels := make([]int, 0, len(defs))
	for level := range defs {
		levels = append(levels, level)
	}
	slices.Sort(levels)

	switch q.symbol {
	case "highest":
		return levels[len(levels)-1], nil
	case "lowest":
		return levels[0], nil
	case "median":
		return levels[len(levels)/2], nil
	}

	best := levels[0]
	for _, level := range levels[1:] {
		if distance(level, q.value) < distance(best, q.value) {
			best = level
		}
	}
	return best, nil
}

// Select returns the url of the picked quality level.
func (q Quality) Select(defs Definitions) (string, error) {
	level, err := q.Level(defs)
	if err != nil {
		return "", err
	}
	return defs[level], nil
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
