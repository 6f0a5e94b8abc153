// Package clock renders and parses the fixed-width timestamps stored on
// licenses and cards. Every stored timestamp uses Layout in a single fixed
// offset so that string comparison agrees with chronological order.
package clock

import (
	"fmt"
	"time"
)

const (
	Layout    = "2006-01-02 15:04:05"
	DayLayout = "20060102"
)

// Clock is the time source used by the services.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type fixedOffsetClock struct {
	loc *time.Location
}

// NewFixedOffset returns a wall clock pinned to UTC+offsetHours.
func NewFixedOffset(offsetHours int) Clock {
	name := fmt.Sprintf("UTC%+d", offsetHours)
	return &fixedOffsetClock{loc: time.FixedZone(name, offsetHours*3600)}
}

func (c *fixedOffsetClock) Now() time.Time {
	return time.Now().In(c.loc).Truncate(time.Second)
}

func (c *fixedOffsetClock) Location() *time.Location {
	return c.loc
}

// Format renders t in the canonical layout inside c's zone.
func Format(c Clock, t time.Time) string {
	return t.In(c.Location()).Format(Layout)
}

// NowString is Format(c, c.Now()).
func NowString(c Clock) string {
	return Format(c, c.Now())
}

// Parse reads a canonical timestamp in c's zone.
func Parse(c Clock, value string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, value, c.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", value, err)
	}
	return t, nil
}

// Valid reports whether value is a canonical timestamp.
func Valid(value string) bool {
	_, err := time.Parse(Layout, value)
	return err == nil
}
