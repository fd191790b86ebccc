package validation_test

import (
	"testing"

	"github.com/goliatone/go-formkit/pkg/validation"
)

func TestClockAfter(t *testing.T) {
	cases := []struct {
		start, end string
		want       bool
	}{
		{"09:00", "10:00", true},
		{"09:00:00", "08:30:00", false},
		{"09:15", "09:15:59", false},
		{"09:15", "09:16", true},
		{"23:59", "00:00", false},
		{"garbage", "08:00", true},
		{"09:00", "25:00", true},
	}

	for _, tc := range cases {
		if got := validation.ClockAfter(tc.start, tc.end); got != tc.want {
			t.Fatalf("ClockAfter(%q, %q) = %v, want %v", tc.start, tc.end, got, tc.want)
		}
	}
}

func TestParseClock(t *testing.T) {
	hour, minute, ok := validation.ParseClock(" 07:05:09 ")
	if !ok || hour != 7 || minute != 5 {
		t.Fatalf("unexpected parse %d:%d ok=%v", hour, minute, ok)
	}
	for _, bad := range []string{"", "7", "07:60", "07:00:61", "a:b"} {
		if _, _, ok := validation.ParseClock(bad); ok {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}
