package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MinutesPerDay is the length of a civil day in minutes.
const MinutesPerDay = 24 * 60

// Open24Hours is the canonical text for a day flagged as open around the clock.
const Open24Hours = "Open 24 hours"

// ClosedText is the canonical text for a day that is known but has no ranges.
const ClosedText = "Closed"

// Interval is an open/close pair in minutes since midnight (0..1439).
// Close < Open means the range runs past midnight.
type Interval struct {
	Open  int
	Close int
}

// Wraps reports whether the range continues past midnight.
func (i Interval) Wraps() bool { return i.Close < i.Open }

// String renders "H:MMAM-H:MMPM".
func (i Interval) String() string { return FormatClock(i.Open) + "-" + FormatClock(i.Close) }

// DayHours is either the 24-hour flag or zero or more intervals, never both.
type DayHours struct {
	Open24    bool
	Intervals []Interval
}

func (d DayHours) String() string {
	if d.Open24 {
		return Open24Hours
	}
	if len(d.Intervals) == 0 {
		return ClosedText
	}
	parts := make([]string, len(d.Intervals))
	for i, iv := range d.Intervals {
		parts[i] = iv.String()
	}
	return strings.Join(parts, ",")
}

// WeeklySchedule maps a weekday to its hours. A missing weekday means the
// hours for that day are unknown, which is not the same as closed.
type WeeklySchedule map[time.Weekday]DayHours

// Week lists weekdays in display order, Monday first.
var Week = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// Canonical renders the schedule as day name → canonical hours text.
func (s WeeklySchedule) Canonical() map[string]string {
	out := make(map[string]string, len(s))
	for d, h := range s {
		out[d.String()] = h.String()
	}
	return out
}

func (s WeeklySchedule) MarshalJSON() ([]byte, error) { return json.Marshal(s.Canonical()) }

// FormatClock renders minutes since midnight as "H:MMAM".
func FormatClock(minutes int) string {
	minutes = ((minutes % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	h, m := minutes/60, minutes%60
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d%s", h12, m, suffix)
}
