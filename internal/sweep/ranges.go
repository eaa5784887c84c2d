// Package sweep enumerates the experiment parameter space, collects the
// per-run outcomes written by the runner, and summarises them.
package sweep

import (
	"fmt"
	"strconv"
	"strings"
)

// IntRangeSpec defines an integer parameter range for sweeping.
type IntRangeSpec struct {
	Min  int
	Max  int
	Step int
}

// ParseIntRangeSpec parses a "min:max:step" string into an IntRangeSpec.
func ParseIntRangeSpec(s string) (IntRangeSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return IntRangeSpec{}, fmt.Errorf("invalid range format %q: expected min:max:step", s)
	}

	min, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return IntRangeSpec{}, fmt.Errorf("invalid min value %q: %w", parts[0], err)
	}

	max, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return IntRangeSpec{}, fmt.Errorf("invalid max value %q: %w", parts[1], err)
	}

	step, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return IntRangeSpec{}, fmt.Errorf("invalid step value %q: %w", parts[2], err)
	}

	if step <= 0 {
		return IntRangeSpec{}, fmt.Errorf("step must be positive, got %d", step)
	}

	return IntRangeSpec{Min: min, Max: max, Step: step}, nil
}

// maxValues bounds every generated range.
const maxValues = 10000

// GenerateIntRange returns min, min+step, ... up to max inclusive. It
// returns nil for an empty or oversized range.
func GenerateIntRange(min, max, step int) []int {
	if step <= 0 || min > max {
		return nil
	}
	if (max-min)/step+1 > maxValues {
		return nil
	}

	var result []int
	for v := min; v <= max; v += step {
		result = append(result, v)
	}
	return result
}

// ParseCSVInts parses a comma-separated list of int values.
// Returns nil, nil for empty input strings.
func ParseCSVInts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid int '%s': %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseWindows parses a send window list: either "min:max:step" or
// comma-separated values. Windows must be positive.
func ParseWindows(s string) ([]int, error) {
	var (
		out []int
		err error
	)
	if strings.Contains(s, ":") {
		spec, perr := ParseIntRangeSpec(s)
		if perr != nil {
			return nil, perr
		}
		out = GenerateIntRange(spec.Min, spec.Max, spec.Step)
		if out == nil {
			return nil, fmt.Errorf("range %q yields no windows", s)
		}
	} else {
		out, err = ParseCSVInts(s)
		if err != nil {
			return nil, err
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no send windows in %q", s)
	}
	for _, w := range out {
		if w <= 0 {
			return nil, fmt.Errorf("send window must be positive, got %d", w)
		}
	}
	return out, nil
}
