package date

import (
	"testing"
	"time"
)

func timeDate(year int, month time.Month, day int, hour int, min int, seconds int) time.Time {
	loc, _ := time.LoadLocation("Local")
	return time.Date(year, month, day, hour, min, seconds, 0, loc)
}

func TestDayWindow(t *testing.T) {
	var dayWindowTests = []struct {
		in    time.Time
		start time.Time
		end   time.Time
	}{
		{
			timeDate(2024, 3, 10, 12, 30, 0),
			timeDate(2024, 3, 10, 0, 0, 0),
			timeDate(2024, 3, 10, 23, 59, 59).Add(999 * time.Millisecond),
		},
		{
			// Case midnight
			timeDate(2024, 3, 10, 0, 0, 0),
			timeDate(2024, 3, 10, 0, 0, 0),
			timeDate(2024, 3, 10, 23, 59, 59).Add(999 * time.Millisecond),
		},
		{
			// Case last millisecond
			timeDate(2024, 12, 31, 23, 59, 59).Add(999 * time.Millisecond),
			timeDate(2024, 12, 31, 0, 0, 0),
			timeDate(2024, 12, 31, 23, 59, 59).Add(999 * time.Millisecond),
		},
	}

	for _, tt := range dayWindowTests {
		window := DayWindow(tt.in)
		if !window.Start.Equal(tt.start) || !window.End.Equal(tt.end) {
			t.Errorf("DayWindow(%s) = %s, want %s - %s", tt.in, window.String(), tt.start, tt.end)
		}
		if !window.ContainsTime(tt.in) {
			t.Errorf("DayWindow(%s) does not contain its input", tt.in)
		}
	}
}

func TestDayWindow_NextDayExcluded(t *testing.T) {
	window := DayWindow(timeDate(2024, 3, 10, 8, 0, 0))
	if window.ContainsTime(timeDate(2024, 3, 11, 0, 0, 0)) {
		t.Error("next midnight must not be part of the day")
	}
	if window.ContainsTime(timeDate(2024, 3, 9, 23, 59, 59)) {
		t.Error("previous day must not be part of the day")
	}
}

func TestDayWindow_UsesLocation(t *testing.T) {
	zone := time.FixedZone("UTC+5", 5*60*60)
	point := time.Date(2024, 3, 10, 22, 0, 0, 0, time.UTC)

	window := DayWindow(point.In(zone))
	if DayKey(point.In(zone)) != "2024-03-11" {
		t.Errorf("DayKey() = %s", DayKey(point.In(zone)))
	}
	if window.Start.Day() != 11 {
		t.Errorf("window starts on %s", window.Start)
	}
}

func TestTimespan_Contains(t *testing.T) {
	outer := Timespan{Start: timeDate(2024, 1, 1, 8, 0, 0), End: timeDate(2024, 1, 1, 18, 0, 0)}

	if !outer.Contains(Timespan{Start: timeDate(2024, 1, 1, 9, 0, 0), End: timeDate(2024, 1, 1, 10, 0, 0)}) {
		t.Error("inner timespan should be contained")
	}
	if outer.Contains(Timespan{Start: timeDate(2024, 1, 1, 17, 0, 0), End: timeDate(2024, 1, 1, 19, 0, 0)}) {
		t.Error("overflowing timespan should not be contained")
	}
	if outer.Duration() != 10*time.Hour {
		t.Errorf("Duration() = %s", outer.Duration())
	}
}
