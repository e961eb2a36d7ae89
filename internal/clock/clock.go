// Package clock centralizes the calendar-day arithmetic shared by the scheduler and processors.
package clock

import (
	"strings"
	"time"
)

const (
	// DateLayout is the format of success markers and artifact dates.
	DateLayout = "2006-01-02"
	// TimestampLayout is the format of the stored last-run timestamp.
	TimestampLayout = "2006-01-02 15:04:05"
)

var publishedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	TimestampLayout,
	"2006-01-02T15:04",
	time.RFC1123Z,
	time.RFC1123,
}

// Clock reports the current instant in the configured timezone.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// New builds a clock for loc; a nil now uses time.Now.
func New(loc *time.Location, now func() time.Time) Clock {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return Clock{loc: loc, now: now}
}

// Location returns the timezone days are counted in.
func (c Clock) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// Now returns the current time in the clock's timezone.
func (c Clock) Now() time.Time {
	now := c.now
	if now == nil {
		now = time.Now
	}
	return now().In(c.Location())
}

// Today returns the current calendar date as YYYY-MM-DD.
func (c Clock) Today() string {
	return c.Now().Format(DateLayout)
}

// Timestamp returns the current time in TimestampLayout.
func (c Clock) Timestamp() string {
	return c.Now().Format(TimestampLayout)
}

// ParsePublished parses the publish timestamps sources emit. Values without an offset are read in loc.
func ParsePublished(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range publishedLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	if len(value) >= len(DateLayout) {
		if t, err := time.ParseInLocation(DateLayout, value[:len(DateLayout)], loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DatePrefix returns the YYYY-MM-DD prefix of a stored timestamp, or "" when it is too short.
func DatePrefix(timestamp string) string {
	if len(timestamp) < len(DateLayout) {
		return ""
	}
	return timestamp[:len(DateLayout)]
}
