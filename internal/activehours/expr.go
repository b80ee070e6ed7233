package activehours

import (
	"fmt"
	"strings"
	"time"
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// expr is a parsed recurrence expression: either "<weekday|day> HH:MM" or,
// for range ends only, "+<duration>" relative to the range start.
type expr struct {
	daily   bool
	weekday time.Weekday
	hour    int
	minute  int

	relative bool
	offset   time.Duration
}

func parseExpr(s string, allowRelative bool) (expr, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(s, "+") {
		if !allowRelative {
			return expr{}, fmt.Errorf("relative expression %q not allowed here", s)
		}
		d, err := time.ParseDuration(s[1:])
		if err != nil || d <= 0 {
			return expr{}, fmt.Errorf("invalid offset %q", s)
		}
		return expr{relative: true, offset: d}, nil
	}

	fields := strings.Fields(s)
	if len(fields) != 2 {
		return expr{}, fmt.Errorf("expected \"<weekday|day> HH:MM\", got %q", s)
	}

	var e expr
	switch day := fields[0]; day {
	case "day", "daily":
		e.daily = true
	default:
		wd, ok := weekdays[day]
		if !ok {
			return expr{}, fmt.Errorf("unknown day %q", day)
		}
		e.weekday = wd
	}

	clock, err := time.Parse("15:04", fields[1])
	if err != nil {
		return expr{}, fmt.Errorf("invalid time of day %q: %w", fields[1], err)
	}
	e.hour, e.minute = clock.Hour(), clock.Minute()
	return e, nil
}

// periodDays is how often the expression recurs.
func (e expr) periodDays() int {
	if e.daily {
		return 1
	}
	return 7
}

// onOrAfter returns the first occurrence of e at or after ref, in ref's
// location.
func (e expr) onOrAfter(ref time.Time) time.Time {
	days := 0
	if !e.daily {
		days = (int(e.weekday) - int(ref.Weekday()) + 7) % 7
	}
	t := time.Date(ref.Year(), ref.Month(), ref.Day()+days, e.hour, e.minute, 0, 0, ref.Location())
	if t.Before(ref) {
		t = t.AddDate(0, 0, e.periodDays())
	}
	return t
}

// thisPeriod returns the occurrence of e within the period containing the
// start of ref's day (today for daily, this coming week for weekdays).
func (e expr) thisPeriod(ref time.Time) time.Time {
	midnight := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	return e.onOrAfter(midnight)
}
