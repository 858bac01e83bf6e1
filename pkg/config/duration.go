package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration is a time.Duration that unmarshals from the extended grammar
// spec.md §6 requires: Go's standard units (ns, us, ms, s, m, h) plus
// d=24h, w=7d, mm=30d, y=365d ("mm" is months, "m" stays minutes). Any
// value time.ParseDuration accepts, mixed units such as "1h30m" included,
// is parsed by it; otherwise the value must be "<number><unit>" with one
// extended unit, so extended units cannot be combined in one value.
type Duration time.Duration

var extendedUnits = map[string]time.Duration{
	"d":  24 * time.Hour,
	"w":  7 * 24 * time.Hour,
	"mm": 30 * 24 * time.Hour,
	"y":  365 * 24 * time.Hour,
}

// ParseDuration parses s using Go's time.ParseDuration, falling back to
// the extended single-unit grammar (d, w, mm, y) when that fails.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	for _, unit := range []string{"mm", "d", "w", "y"} {
		if strings.HasSuffix(s, unit) {
			numPart := strings.TrimSuffix(s, unit)
			n, err := strconv.ParseFloat(numPart, 64)
			if err != nil {
				continue
			}
			return time.Duration(n * float64(extendedUnits[unit])), nil
		}
	}

	return 0, fmt.Errorf("config: invalid duration %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler so caarlos0/env can
// populate Duration fields directly from environment variable text.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a standard library time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }
