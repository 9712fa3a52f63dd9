package common

import (
	"fmt"
	"strings"
	"time"

	iso8601 "github.com/senseyeio/duration"
)

// ParseWindow reads a reporting window as either a Go duration ("72h") or an
// ISO 8601 duration ("P7D"). Calendar units are resolved against now.
func ParseWindow(window string, now time.Time) (time.Duration, error) {
	window = strings.TrimSpace(window)

	if parsed, err := time.ParseDuration(window); err == nil {
		if parsed <= 0 {
			return 0, fmt.Errorf("window must be positive: %s", window)
		}
		return parsed, nil
	}

	isoDuration, err := iso8601.ParseISO8601(window)
	if err != nil {
		return 0, fmt.Errorf("invalid window %q. Expect ISO 8601 (P7D) or a duration (72h)", window)
	}

	start := isoDuration.Shift(now)
	if !start.After(now) {
		return 0, fmt.Errorf("window must be positive: %s", window)
	}
	return start.Sub(now), nil
}

// FormatDurationRemaining renders d as "1 day, 2 hours, 3 minutes".
func FormatDurationRemaining(d time.Duration) string {
	if d <= 0 {
		return "0 seconds"
	}

	units := []struct {
		name string
		size time.Duration
	}{
		{"day", 24 * time.Hour},
		{"hour", time.Hour},
		{"minute", time.Minute},
		{"second", time.Second},
	}

	var parts []string
	for _, unit := range units {
		count := int(d / unit.size)
		d -= time.Duration(count) * unit.size
		switch {
		case count == 1:
			parts = append(parts, "1 "+unit.name)
		case count > 1:
			parts = append(parts, fmt.Sprintf("%d %ss", count, unit.name))
		}
	}

	if len(parts) == 0 {
		return "0 seconds"
	}
	return strings.Join(parts, ", ")
}
