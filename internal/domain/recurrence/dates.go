package recurrence

import "time"

const secondsPerDay = 24 * 60 * 60

// daysIn returns the length of month m in year y.
func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// onDay builds the instant on day of (y, m) carrying ref's clock time and
// location. Month overflow rolls into the following years and day is clamped
// to the month's last day.
func onDay(ref time.Time, y int, m time.Month, day int) time.Time {
	first := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	y, m = first.Year(), first.Month()
	if last := daysIn(y, m); day > last {
		day = last
	}
	return time.Date(y, m, day, ref.Hour(), ref.Minute(), ref.Second(), ref.Nanosecond(), ref.Location())
}

// civilDay numbers calendar days, ignoring clock time.
func civilDay(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay)
}

// mondayOffset returns days since the Monday of t's week.
func mondayOffset(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// monthsBetween counts calendar months from a to b.
func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
