// Package hours parses free-form weekly operating hours and evaluates them
// against a civil instant in a fixed UTC+8 offset.
package hours

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"qc_restaurants/internal/attrs"
	"qc_restaurants/internal/domain"
)

var (
	// ErrMalformedHours marks an hours payload that is not a day mapping.
	ErrMalformedHours = errors.New("hours: malformed hours payload")
	// ErrMalformedHoursToken marks one time range that could not be read.
	ErrMalformedHoursToken = errors.New("hours: malformed time range")
)

// TokenError reports a single dropped range. The rest of the day is kept.
type TokenError struct {
	Day   time.Weekday
	Range string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("%v: %s %q", ErrMalformedHoursToken, e.Day, e.Range)
}

func (e *TokenError) Unwrap() error { return ErrMalformedHoursToken }

var (
	dashes    = strings.NewReplacer("\u2013", "-", "\u2014", "-", "\u2012", "-", "\u2212", "-")
	meridiem  = regexp.MustCompile(`(?i)(\d)\s*([ap])\.?\s*m\b\.?`)
	clockText = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?(AM|PM)?$`)
)

// Parse builds a WeeklySchedule from a day mapping or its JSON-like text.
// It never fails outright: the returned errors describe what was dropped.
// Days missing from the input stay missing from the schedule.
func Parse(v domain.Value) (domain.WeeklySchedule, []error) {
	out := domain.WeeklySchedule{}

	days, err := dayMapping(v)
	if err != nil {
		return out, []error{err}
	}

	var errs []error
	for _, d := range domain.Week {
		raw, ok := days[d.String()]
		if !ok || raw.IsMissing() {
			continue
		}
		text, ok := dayText(raw)
		if !ok {
			errs = append(errs, &TokenError{Day: d, Range: raw.Kind().String()})
			continue
		}
		h, dropped := parseDay(d, text)
		out[d] = h
		errs = append(errs, dropped...)
	}
	return out, errs
}

func dayMapping(v domain.Value) (map[string]domain.Value, error) {
	switch v.Kind() {
	case domain.KindMissing:
		return nil, nil
	case domain.KindMapping:
		m, _ := v.Map()
		return m, nil
	case domain.KindString:
		s, _ := v.Str()
		if domain.IsAbsentText(s) {
			return nil, nil
		}
		m, err := attrs.DecodeObject(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedHours, err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: unexpected %s value", ErrMalformedHours, v.Kind())
	}
}

// dayText flattens a day's value; providers send either one string or a list of ranges.
func dayText(v domain.Value) (string, bool) {
	if s, ok := v.Str(); ok {
		return s, true
	}
	if items, ok := v.Items(); ok {
		parts := make([]string, 0, len(items))
		for _, it := range items {
			s, ok := it.Str()
			if !ok {
				return "", false
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, ","), true
	}
	return "", false
}

// NormalizeText applies the textual clean-up used before splitting ranges:
// unicode dashes become '-', whitespace collapses, and "11  am" becomes "11AM".
func NormalizeText(s string) string {
	s = dashes.Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	return meridiem.ReplaceAllStringFunc(s, func(m string) string {
		sub := meridiem.FindStringSubmatch(m)
		return sub[1] + strings.ToUpper(sub[2]) + "M"
	})
}

func parseDay(d time.Weekday, text string) (domain.DayHours, []error) {
	text = strings.TrimSpace(NormalizeText(text))
	if strings.EqualFold(text, domain.Open24Hours) {
		return domain.DayHours{Open24: true}, nil
	}
	if strings.EqualFold(text, domain.ClosedText) {
		return domain.DayHours{}, nil
	}

	var (
		h    domain.DayHours
		errs []error
	)
	for _, r := range strings.Split(text, ",") {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		iv, ok := parseRange(r)
		if !ok {
			errs = append(errs, &TokenError{Day: d, Range: r})
			continue
		}
		if iv.Open == iv.Close {
			// "12AM-12AM" spans the whole day
			return domain.DayHours{Open24: true}, errs
		}
		h.Intervals = append(h.Intervals, iv)
	}
	return h, errs
}

func parseRange(r string) (domain.Interval, bool) {
	parts := strings.Split(r, "-")
	if len(parts) != 2 {
		return domain.Interval{}, false
	}
	openTok := strings.ReplaceAll(strings.TrimSpace(parts[0]), " ", "")
	closeTok := strings.ReplaceAll(strings.TrimSpace(parts[1]), " ", "")

	closeMin, closeMer, ok := parseClock(closeTok, "")
	if !ok || closeMer == "" {
		return domain.Interval{}, false
	}
	// "5-9PM": the opening side inherits the closing meridiem, unless that
	// would put it after the close ("11-2PM" is 11AM-2PM, "10-1AM" is 10PM-1AM)
	openMin, openMer, ok := parseClock(openTok, closeMer)
	if !ok {
		return domain.Interval{}, false
	}
	if openMer == "" && openMin > closeMin {
		openMin = (openMin + 12*60) % domain.MinutesPerDay
	}
	return domain.Interval{Open: openMin, Close: closeMin}, true
}

// parseClock reads "H:MMAM" or "HAM". A token without a meridiem takes
// inherit, and is rejected when inherit is empty.
func parseClock(tok, inherit string) (int, string, bool) {
	m := clockText.FindStringSubmatch(strings.ToUpper(tok))
	if m == nil {
		return 0, "", false
	}
	mer := m[3]
	if mer == "" {
		if inherit == "" {
			return 0, "", false
		}
		mer = inherit
	}
	h, err := strconv.Atoi(m[1])
	if err != nil || h < 1 || h > 12 {
		return 0, "", false
	}
	mins := 0
	if m[2] != "" {
		if mins, err = strconv.Atoi(m[2]); err != nil || mins > 59 {
			return 0, "", false
		}
	}
	h %= 12
	if mer == "PM" {
		h += 12
	}
	return h*60 + mins, m[3], true
}
