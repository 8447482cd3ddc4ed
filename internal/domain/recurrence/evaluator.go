// Package recurrence evaluates recurrence templates into occurrence instants
// and applies per-occurrence exceptions to them.
package recurrence

import (
	"time"

	"github.com/taskmaster/recurring/internal/domain/entities"
)

// series is a rule's occurrence sequence indexed by ordinal. nth is strictly
// increasing and nth(0) is the first occurrence at or after the start date.
// guess returns an ordinal close to the first occurrence at or after t; it
// only has to be near, Occurrences corrects it.
type series struct {
	nth   func(o int) time.Time
	guess func(t time.Time) int
}

// Occurrences returns the occurrences of t inside [from, to], in order. The
// template is assumed valid. AFTER_COUNT limits are applied by ordinal from
// the start date, so the result does not depend on earlier windows.
func Occurrences(t *entities.RecurrenceTemplate, from, to time.Time) []time.Time {
	if from.Before(t.StartDate) {
		from = t.StartDate
	}
	if t.EndType == entities.EndTypeOnDate && t.EndDate != nil && t.EndDate.Before(to) {
		to = *t.EndDate
	}
	if to.Before(from) {
		return nil
	}

	limit := -1
	if t.EndType == entities.EndTypeAfterCount && t.Count != nil {
		limit = *t.Count
	}

	s := newSeries(t)
	o := s.guess(from)
	if o < 0 {
		o = 0
	}
	for o > 0 && !s.nth(o-1).Before(from) {
		o--
	}
	for s.nth(o).Before(from) {
		o++
	}

	var out []time.Time
	for ; limit < 0 || o < limit; o++ {
		at := s.nth(o)
		if at.After(to) {
			break
		}
		out = append(out, at)
	}
	return out
}

// Nth returns the o-th occurrence (zero based) of t, ignoring termination.
func Nth(t *entities.RecurrenceTemplate, o int) time.Time {
	return newSeries(t).nth(o)
}

func newSeries(t *entities.RecurrenceTemplate) series {
	interval := t.Interval
	if interval < 1 {
		interval = 1
	}
	start := t.StartDate

	switch t.Frequency {
	case entities.FrequencyWeekly:
		if offsets := t.ByWeekDay.Offsets(); len(offsets) > 0 {
			return weeklyByDay(start, interval, offsets)
		}
		return fixedDays(start, 7*interval)
	case entities.FrequencyMonthly:
		day := start.Day()
		if t.ByMonthDay != nil {
			day = *t.ByMonthDay
		}
		return monthly(start, interval, day)
	case entities.FrequencyYearly:
		return yearly(start, interval)
	default:
		return fixedDays(start, interval)
	}
}

func fixedDays(start time.Time, step int) series {
	return series{
		nth: func(o int) time.Time {
			return start.AddDate(0, 0, o*step)
		},
		guess: func(t time.Time) int {
			return (civilDay(t) - civilDay(start)) / step
		},
	}
}

// weeklyByDay walks the listed weekdays of every interval-th week, weeks
// starting on Monday. Days of the first week before the start are dropped.
func weeklyByDay(start time.Time, interval int, offsets []int) series {
	n := len(offsets)
	weekStart := start.AddDate(0, 0, -mondayOffset(start))

	first := 0
	for _, off := range offsets {
		if off >= mondayOffset(start) {
			first++
		}
	}

	return series{
		nth: func(o int) time.Time {
			if o < first {
				return weekStart.AddDate(0, 0, offsets[n-first+o])
			}
			o -= first
			week := 1 + o/n
			return weekStart.AddDate(0, 0, week*interval*7+offsets[o%n])
		},
		guess: func(t time.Time) int {
			weeks := (civilDay(t) - civilDay(weekStart)) / 7 / interval
			if weeks < 1 {
				return 0
			}
			return first + (weeks-1)*n
		},
	}
}

func monthly(start time.Time, interval, day int) series {
	y, m := start.Year(), start.Month()
	skip := 0
	if onDay(start, y, m, day).Before(start) {
		skip = 1
	}

	return series{
		nth: func(o int) time.Time {
			return onDay(start, y, m+time.Month((o+skip)*interval), day)
		},
		guess: func(t time.Time) int {
			return monthsBetween(start, t)/interval - skip
		},
	}
}

func yearly(start time.Time, interval int) series {
	y, m, d := start.Date()
	return series{
		nth: func(o int) time.Time {
			return onDay(start, y+o*interval, m, d)
		},
		guess: func(t time.Time) int {
			return (t.Year() - y) / interval
		},
	}
}
