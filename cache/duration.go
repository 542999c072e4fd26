package cache

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// durationPattern matches the compact duration grammar: a non-negative
// integer followed by an optional unit. A bare integer is milliseconds.
var durationPattern = regexp.MustCompile(`^(\d+)(ms|s|m|h|d|w)?$`)

// ParseDuration parses a compact duration string such as "500ms", "30s",
// "5m", "1h", "7d", or "2w". A bare integer ("1500") is milliseconds, and
// the empty string is zero.
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}

	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}

	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}

	var unit time.Duration
	switch m[2] {
	case "", "ms":
		unit = time.Millisecond
	case "s":
		unit = time.Second
	case "m":
		unit = time.Minute
	case "h":
		unit = time.Hour
	case "d":
		unit = 24 * time.Hour
	case "w":
		unit = 7 * 24 * time.Hour
	}

	return time.Duration(n) * unit, nil
}
