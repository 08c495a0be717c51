package date

import (
	"fmt"
	"time"
)

// DayLayout is the layout of a calendar day key
const DayLayout = "2006-01-02"

// TimeBeforeOrEquals returns whether t1 is before or equal t2
func TimeBeforeOrEquals(t1 time.Time, t2 time.Time) bool {
	return t1.UnixNano() <= t2.UnixNano()
}

// TimeAfterOrEquals returns whether t1 is after or equal t2
func TimeAfterOrEquals(t1 time.Time, t2 time.Time) bool {
	return t1.UnixNano() >= t2.UnixNano()
}

// Timespan is a simple timespan between to times/dates
type Timespan struct {
	Start time.Time `json:"start" bson:"start"`
	End   time.Time `json:"end" bson:"end"`
}

// Duration simply get the duration of a Timespan
func (t *Timespan) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// String prints a timespan string
func (t *Timespan) String() string {
	return fmt.Sprintf("%s - %s", t.Start, t.End)
}

// ContainsTime checks if a point in time lies inside the timespan, both ends included
func (t *Timespan) ContainsTime(point time.Time) bool {
	return TimeAfterOrEquals(point, t.Start) && TimeBeforeOrEquals(point, t.End)
}

// Contains checks if one timespan t contains another Timespan timespan
func (t *Timespan) Contains(timespan Timespan) bool {
	return TimeAfterOrEquals(timespan.Start, t.Start) &&
		TimeBeforeOrEquals(timespan.End, t.End)
}

// DayWindow returns the inclusive window [00:00:00.000, 23:59:59.999] of the
// calendar day of point, in the location of point
func DayWindow(point time.Time) Timespan {
	year, month, day := point.Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, point.Location())
	end := time.Date(year, month, day, 23, 59, 59, int(999*time.Millisecond), point.Location())

	return Timespan{Start: start, End: end}
}

// DayKey returns the calendar day of point as YYYY-MM-DD in its location
func DayKey(point time.Time) string {
	return point.Format(DayLayout)
}
