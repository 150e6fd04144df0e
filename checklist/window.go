package checklist

import (
	"strconv"
	"strings"
	"time"
)

// WindowState classifies an instance against its template's execution window.
type WindowState string

const (
	// WindowNotApplicable means the template has no window configured; the
	// checklist is executable any time on its scheduled date.
	WindowNotApplicable WindowState = "not_applicable"
	WindowBefore        WindowState = "before_window"
	WindowOpen          WindowState = "in_window"
	// WindowGrace covers the span after the end time but before the cutoff,
	// when late submission is still accepted.
	WindowGrace  WindowState = "in_grace"
	WindowClosed WindowState = "after_cutoff"
)

// Window is a template's configured execution window, all values "HH:MM"
// time-of-day strings. End and Cutoff may be numerically smaller than Start,
// which means the window crosses midnight.
type Window struct {
	Start  *string
	End    *string
	Cutoff *string
}

// WindowStatus is the result of evaluating a window at one instant.
type WindowStatus struct {
	State WindowState `json:"state"`
	// MinutesUntilStart is set when State is before_window.
	MinutesUntilStart int `json:"minutes_until_start,omitempty"`
	// MinutesUntilClose counts down to the end time while in_window, and to
	// the cutoff while in_grace.
	MinutesUntilClose int `json:"minutes_until_close,omitempty"`
}

// Executable reports whether a final submission is acceptable in this state.
func (ws WindowStatus) Executable() bool {
	return ws.State != WindowClosed
}

const minutesPerDay = 24 * 60

// clockMinutes parses "HH:MM" into minutes since midnight. Malformed or
// absent values are treated as not configured.
func clockMinutes(s *string) (int, bool) {
	if s == nil {
		return 0, false
	}
	parts := strings.SplitN(*s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// EvaluateWindow classifies asOf against the window of the instance scheduled
// on date. Both instants are interpreted in loc; the caller resolves the
// organization's timezone, it is never read from ambient state.
//
// A window whose end is numerically smaller than its start spans midnight:
// for a 22:00-02:00 window, both 23:30 and 01:30 of the scheduled date are
// in_window, while 12:00 is before_window. A start without an end runs to the
// end of the day; an end without a start opens at midnight. Without a cutoff
// the window closes hard at its end (no grace span).
//
// Pure function; safe to call at any cadence.
func EvaluateWindow(win Window, date time.Time, asOf time.Time, loc *time.Location) WindowStatus {
	start, hasStart := clockMinutes(win.Start)
	end, hasEnd := clockMinutes(win.End)
	if !hasStart && !hasEnd {
		return WindowStatus{State: WindowNotApplicable}
	}
	if !hasStart {
		start = 0
	}
	if !hasEnd {
		end = minutesPerDay
	}
	if end <= start {
		end += minutesPerDay
	}

	cutoff := end
	if c, ok := clockMinutes(win.Cutoff); ok {
		if c < start {
			c += minutesPerDay
		}
		if c > cutoff {
			cutoff = c
		}
	}

	local := asOf.In(loc)
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	elapsed := int(local.Sub(midnight) / time.Minute)

	// For a midnight-crossing window the early-morning hours of the
	// scheduled date belong to the window's tail, not to the long wait
	// before its start.
	if end > minutesPerDay && elapsed+minutesPerDay <= cutoff {
		elapsed += minutesPerDay
	}

	switch {
	case elapsed < start:
		return WindowStatus{State: WindowBefore, MinutesUntilStart: start - elapsed}
	case elapsed < end:
		return WindowStatus{State: WindowOpen, MinutesUntilClose: end - elapsed}
	case elapsed < cutoff:
		return WindowStatus{State: WindowGrace, MinutesUntilClose: cutoff - elapsed}
	default:
		return WindowStatus{State: WindowClosed}
	}
}
