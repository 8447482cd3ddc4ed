package recurrence

import (
	"time"

	"github.com/samber/mo"

	"github.com/taskmaster/recurring/internal/domain/entities"
)

// Occurrence is a resolved occurrence. OriginalDate is the dedup key of the
// instance, DueDate is where it lands after exceptions.
type Occurrence struct {
	OriginalDate time.Time
	DueDate      time.Time
}

// exceptionIndex keys exceptions by the instant they override.
type exceptionIndex map[int64]*entities.RecurrenceException

func indexExceptions(exceptions []*entities.RecurrenceException) exceptionIndex {
	idx := make(exceptionIndex, len(exceptions))
	for _, e := range exceptions {
		if e == nil {
			continue
		}
		idx[e.OriginalDate.UnixNano()] = e
	}
	return idx
}

func (idx exceptionIndex) lookup(at time.Time) mo.Option[*entities.RecurrenceException] {
	if e, ok := idx[at.UnixNano()]; ok {
		return mo.Some(e)
	}
	return mo.None[*entities.RecurrenceException]()
}

// Resolve applies exceptions to raw occurrences, keeping input order. Skipped
// occurrences are dropped; rescheduled ones keep their original date and take
// the new due date. Exceptions matching no occurrence are ignored.
func Resolve(raw []time.Time, exceptions []*entities.RecurrenceException) []Occurrence {
	idx := indexExceptions(exceptions)
	out := make([]Occurrence, 0, len(raw))

	for _, at := range raw {
		occ := Occurrence{OriginalDate: at, DueDate: at}

		if e, ok := idx.lookup(at).Get(); ok {
			switch e.Action {
			case entities.ExceptionActionSkip:
				continue
			case entities.ExceptionActionReschedule:
				if e.NewDate != nil {
					occ.DueDate = *e.NewDate
				}
			}
		}

		out = append(out, occ)
	}
	return out
}
