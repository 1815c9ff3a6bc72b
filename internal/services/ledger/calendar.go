package ledger

import (
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
)

// DateLayout is the calendar-day format stored on accounts
const DateLayout = "2006-01-02"

// Calendar turns the injected clock into calendar days in a fixed timezone
type Calendar struct {
	clock clockwork.Clock
	loc   *time.Location
}

// NewCalendar returns a calendar for loc. A nil location means UTC.
func NewCalendar(clock clockwork.Clock, loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{clock: clock, loc: loc}
}

// LoadCalendar resolves an IANA timezone name
func LoadCalendar(clock clockwork.Clock, timezone string) (*Calendar, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("error loading timezone %q: %w", timezone, err)
	}
	return NewCalendar(clock, loc), nil
}

// Now returns the current instant in the calendar's timezone
func (c *Calendar) Now() time.Time {
	return c.clock.Now().In(c.loc)
}

// Today returns the current calendar day
func (c *Calendar) Today() string {
	return c.Now().Format(DateLayout)
}

// Location returns the calendar's timezone
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Clock returns the underlying clock
func (c *Calendar) Clock() clockwork.Clock {
	return c.clock
}

// PreviousDay returns the calendar day before day. Date arithmetic is done on
// the date itself so DST transitions cannot skip or repeat a day.
func PreviousDay(day string) (string, error) {
	t, err := time.Parse(DateLayout, day)
	if err != nil {
		return "", fmt.Errorf("error parsing day %q: %w", day, err)
	}
	return t.AddDate(0, 0, -1).Format(DateLayout), nil
}
