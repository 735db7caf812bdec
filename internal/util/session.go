package util

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

var etLocation = sync.OnceValue(func() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		panic(fmt.Sprintf("loading America/New_York: %v", err))
	}
	return loc
})

// ETLocation returns the America/New_York location used for all US equity
// session arithmetic. It panics when the timezone database is missing.
func ETLocation() *time.Location {
	return etLocation()
}

// Window is a half-open [Start, End) intraday time window expressed in
// minutes from midnight, exchange-local. A minute bar stamped HH:MM belongs
// to the window when Start <= HH*60+MM < End.
type Window struct {
	Start int
	End   int
}

// Contains reports whether the bar timestamp t falls inside the window.
// Only the wall-clock minute of t matters; the caller is responsible for t
// already being exchange-local.
func (w Window) Contains(t time.Time) bool {
	m := MinuteOfDay(t)
	return m >= w.Start && m < w.End
}

// String formats the window as "HH:MM-HH:MM".
func (w Window) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", w.Start/60, w.Start%60, w.End/60, w.End%60)
}

// MinuteOfDay returns the wall-clock minute index of t (0..1439).
func MinuteOfDay(t time.Time) int {
	h, m, _ := t.Clock()
	return h*60 + m
}

// ParseWindow parses a "HH:MM-HH:MM" window specification.
func ParseWindow(spec string) (Window, error) {
	parts := strings.Split(spec, "-")
	if len(parts) != 2 {
		return Window{}, fmt.Errorf("parsing window %q: want HH:MM-HH:MM", spec)
	}
	start, err := parseMinute(parts[0])
	if err != nil {
		return Window{}, fmt.Errorf("parsing window %q: %w", spec, err)
	}
	end, err := parseMinute(parts[1])
	if err != nil {
		return Window{}, fmt.Errorf("parsing window %q: %w", spec, err)
	}
	if end <= start {
		return Window{}, fmt.Errorf("parsing window %q: end not after start", spec)
	}
	return Window{Start: start, End: end}, nil
}

func parseMinute(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("bad time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("bad hour %q", parts[0])
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad minute %q", parts[1])
	}
	return h*60 + m, nil
}

// Regular NYSE session windows for the opening-fade short rule. The entry
// window starts five minutes after the open to let the opening auction
// settle; the cover window is the final minute of the regular session.
var (
	EntryWindow = Window{Start: 9*60 + 35, End: 9*60 + 45}   // [09:35, 09:45)
	CoverWindow = Window{Start: 15*60 + 59, End: 16 * 60}    // [15:59, 16:00)
	SessionEnd  = 16 * 60                                    // 16:00
)

// InSession reports whether t falls inside the regular session up to and
// including the 16:00 close minute.
func InSession(t time.Time) bool {
	m := MinuteOfDay(t)
	return m >= 9*60+30 && m <= SessionEnd
}
