// Package timezones resolves the campus calendar day. Drive dates are stored
// as instants; "today" and "tomorrow" are always judged in the campus zone so
// the midnight backfill and the reminder job agree with what staff see.
package timezones

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-day format used in query strings and in
// reminder bookkeeping.
const DateLayout = "2006-01-02"

// DefaultZone is used when no campus timezone is configured.
const DefaultZone = "Asia/Kolkata"

// Clock answers calendar questions in one location.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// Load returns a Clock for an IANA zone name. Empty means DefaultZone.
func Load(name string) (*Clock, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return &Clock{loc: loc, now: time.Now}, nil
}

// Valid reports whether name is a loadable zone.
func Valid(name string) bool {
	_, err := Load(name)
	return err == nil
}

// Fixed returns a Clock whose Now is pinned. Tests use it.
func Fixed(loc *time.Location, at time.Time) *Clock {
	return &Clock{loc: loc, now: func() time.Time { return at }}
}

// Location returns the campus location.
func (c *Clock) Location() *time.Location { return c.loc }

// Now returns the current instant in the campus zone.
func (c *Clock) Now() time.Time { return c.now().In(c.loc) }

// DayBounds returns [start, end) of the campus day containing t.
func (c *Clock) DayBounds(t time.Time) (time.Time, time.Time) {
	t = t.In(c.loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
	return start, start.AddDate(0, 0, 1)
}

// Today returns the bounds of the current campus day.
func (c *Clock) Today() (time.Time, time.Time) { return c.DayBounds(c.Now()) }

// Tomorrow returns the bounds of the next campus day.
func (c *Clock) Tomorrow() (time.Time, time.Time) {
	_, end := c.Today()
	return c.DayBounds(end)
}

// DateKey formats t as a campus calendar day.
func (c *Clock) DateKey(t time.Time) string { return t.In(c.loc).Format(DateLayout) }

// ParseDate parses a calendar day ("2024-03-14") as campus midnight.
// Full RFC 3339 timestamps are accepted too.
func (c *Clock) ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(DateLayout, s, c.loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}
