package activity

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Day is one reporting-day window in the configured timezone:
// [00:00:00.000, 23:59:59.999] of a calendar date.
type Day struct {
	Date    string
	Start   time.Time
	End     time.Time
	IsToday bool
}

// NewDay parses a YYYY-MM-DD date string into a day window. "now" decides
// whether the day is still open (IsToday), which controls how a trailing
// open session is closed.
func NewDay(dateStr string, loc *time.Location, now time.Time) (Day, error) {
	t, err := time.ParseInLocation(dateLayout, dateStr, loc)
	if err != nil {
		return Day{}, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}

	y, m, d := t.Date()
	return Day{
		Date:    dateStr,
		Start:   time.Date(y, m, d, 0, 0, 0, 0, loc),
		End:     time.Date(y, m, d, 23, 59, 59, 999000000, loc),
		IsToday: now.In(loc).Format(dateLayout) == dateStr,
	}, nil
}

// Prev returns the preceding calendar day's window. Used to look up the last
// known presence before this day's start. A previous day is never "today".
func (d Day) Prev() Day {
	y, m, day := d.Start.Date()
	loc := d.Start.Location()
	start := time.Date(y, m, day-1, 0, 0, 0, 0, loc)
	return Day{
		Date:  start.Format(dateLayout),
		Start: start,
		End:   time.Date(y, m, day-1, 23, 59, 59, 999000000, loc),
	}
}

// Clamp limits t to the day window.
func (d Day) Clamp(t time.Time) time.Time {
	if t.Before(d.Start) {
		return d.Start
	}
	if t.After(d.End) {
		return d.End
	}
	return t
}
