package hours

import (
	"errors"
	"fmt"
	"time"

	"qc_restaurants/internal/domain"
)

// Zone is the fixed UTC+8 offset every schedule is read in. Callers may pass
// any instant; it is converted before evaluation.
var Zone = time.FixedZone("UTC+8", 8*60*60)

// ErrEvaluation is returned when a schedule could not be evaluated. The
// accompanying Availability is always closed with an unknown next opening.
var ErrEvaluation = errors.New("hours: evaluation failed")

// Availability is the open state of a schedule at one instant.
type Availability struct {
	Open bool
	// MinutesUntilOpen is nil while open, or when nothing opens within seven days.
	MinutesUntilOpen *int
}

// Wait renders MinutesUntilOpen as "2h 30m" or "45m"; nil when unknown.
func (a Availability) Wait() *string {
	if a.Open || a.MinutesUntilOpen == nil {
		return nil
	}
	s := FormatWait(*a.MinutesUntilOpen)
	return &s
}

// FormatWait renders a minute count the way listings display it.
func FormatWait(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	h, m := minutes/60, minutes%60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// Evaluate reports whether s is open at now and, when closed, how many
// minutes remain until the next opening. Evaluate is pure: the clock is an
// argument.
func Evaluate(s domain.WeeklySchedule, now time.Time) (a Availability, err error) {
	defer func() {
		if r := recover(); r != nil {
			a, err = Availability{}, fmt.Errorf("%w: %v", ErrEvaluation, r)
		}
	}()

	civil := now.In(Zone)
	day := civil.Weekday()
	cur := civil.Hour()*60 + civil.Minute()

	if openAt(s, day, cur) {
		return Availability{Open: true}, nil
	}
	if wait, ok := nextOpening(s, day, cur); ok {
		return Availability{MinutesUntilOpen: &wait}, nil
	}
	return Availability{}, nil
}

func openAt(s domain.WeeklySchedule, day time.Weekday, cur int) bool {
	if h, ok := s[day]; ok {
		if h.Open24 {
			return true
		}
		for _, iv := range h.Intervals {
			if covers(iv, cur) {
				return true
			}
		}
	}
	// yesterday's overnight ranges still run into the early hours of today
	if h, ok := s[(day+6)%7]; ok && !h.Open24 {
		for _, iv := range h.Intervals {
			if iv.Wraps() && cur <= iv.Close {
				return true
			}
		}
	}
	return false
}

// covers applies the overnight rule: for a wrapping range both the close
// and, when before the opening, the current minute move to the next day.
// Both ends are inclusive.
func covers(iv domain.Interval, cur int) bool {
	open, closing := iv.Open, iv.Close
	if iv.Wraps() {
		closing += domain.MinutesPerDay
		if cur < open {
			cur += domain.MinutesPerDay
		}
	}
	return open <= cur && cur <= closing
}

// nextOpening scans today and the following six days. Today only counts
// openings strictly after cur; a later 24-hour day opens at midnight.
func nextOpening(s domain.WeeklySchedule, day time.Weekday, cur int) (int, bool) {
	for off := 0; off < 7; off++ {
		h, ok := s[(day+time.Weekday(off))%7]
		if !ok {
			continue
		}
		best := -1
		consider := func(open int) {
			if off == 0 && open <= cur {
				return
			}
			if best < 0 || open < best {
				best = open
			}
		}
		if h.Open24 {
			consider(0)
		}
		for _, iv := range h.Intervals {
			consider(iv.Open)
		}
		if best >= 0 {
			return off*domain.MinutesPerDay + best - cur, true
		}
	}
	return 0, false
}

// Today renders the hours line for the civil day of now, or
// "Hours not available" when that day is unknown.
func Today(s domain.WeeklySchedule, now time.Time) string {
	h, ok := s[now.In(Zone).Weekday()]
	if !ok {
		return NotAvailable
	}
	return "Today: " + h.String()
}

// NotAvailable is shown for a day without known hours.
const NotAvailable = "Hours not available"
