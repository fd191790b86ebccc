package validation

import (
	"strconv"
	"strings"

	"github.com/goliatone/go-formkit/pkg/schema"
)

func crossFieldHolds(c schema.Constraint, value any, siblings map[string]any) bool {
	switch c.Kind {
	case schema.ConstraintAfter:
		end, ok := value.(string)
		if !ok {
			return true
		}
		start, ok := siblings[c.Ref].(string)
		if !ok {
			return true
		}
		return ClockAfter(start, end)
	default:
		return true
	}
}

// ClockAfter reports whether end is chronologically after start. Both values
// use "HH:MM" or "HH:MM:SS" and are compared at minute granularity; seconds
// are ignored. Values that do not parse are not judged and report true so the
// field's own format checks own the error.
func ClockAfter(start, end string) bool {
	startHour, startMinute, ok := ParseClock(start)
	if !ok {
		return true
	}
	endHour, endMinute, ok := ParseClock(end)
	if !ok {
		return true
	}
	if endHour < startHour {
		return false
	}
	if endHour == startHour && endMinute <= startMinute {
		return false
	}
	return true
}

// ParseClock extracts hour and minute from an "HH:MM[:SS]" string.
func ParseClock(value string) (int, int, bool) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	if len(parts) == 3 {
		second, err := strconv.Atoi(parts[2])
		if err != nil || second < 0 || second > 59 {
			return 0, 0, false
		}
	}
	return hour, minute, true
}
