package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidRange is returned when a start bound is not before its end bound.
var ErrInvalidRange = errors.New("start must be before end")

// ParseEpochMillis parses a path or query value holding Unix milliseconds.
func ParseEpochMillis(raw string) (time.Time, error) {
	ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch milliseconds %q: %w", raw, err)
	}
	return time.UnixMilli(ms), nil
}

// ParseTimeRange parses optional RFC3339 start and end bounds. A missing
// start defaults to the zero time and a missing end to now. ok is false when
// both bounds are absent.
func ParseTimeRange(startParam, endParam string, now time.Time) (start, end time.Time, ok bool, err error) {
	if startParam == "" && endParam == "" {
		return time.Time{}, time.Time{}, false, nil
	}

	if startParam != "" {
		if start, err = time.Parse(time.RFC3339, startParam); err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("invalid 'start' timestamp %q: %w", startParam, err)
		}
	}

	end = now
	if endParam != "" {
		if end, err = time.Parse(time.RFC3339, endParam); err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("invalid 'end' timestamp %q: %w", endParam, err)
		}
	}

	if !start.Before(end) {
		return time.Time{}, time.Time{}, false, ErrInvalidRange
	}
	return start, end, true, nil
}
