// Package week derives the week-bucket label that groups picks. A bucket is
// the Sunday to Saturday window containing an instant, labelled like
// "Jun 1 - Jun 7, 2025".
package week

import (
	"fmt"
	"time"
)

// Bounds returns midnight of the Sunday starting the week containing t and
// midnight of the following Saturday, both in t's location.
func Bounds(t time.Time) (start, end time.Time) {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	start = day.AddDate(0, 0, -int(day.Weekday()))
	end = start.AddDate(0, 0, 6)
	return start, end
}

// Label formats the bucket containing t. The year is the Saturday's year so
// a week spanning New Year keeps one label.
func Label(t time.Time) string {
	start, end := Bounds(t)
	return fmt.Sprintf("%s - %s, %d", start.Format("Jan 2"), end.Format("Jan 2"), end.Year())
}

// Calendar evaluates labels against a clock in a fixed time zone. The label
// is recomputed on every call, never cached.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

func NewCalendar(loc *time.Location, now func() time.Time) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Calendar{loc: loc, now: now}
}

func (c *Calendar) Now() time.Time {
	return c.now().In(c.loc)
}

func (c *Calendar) Current() string {
	return Label(c.Now())
}
