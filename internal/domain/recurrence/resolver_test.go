package recurrence

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/recurring/internal/domain/entities"
)

func skip(templateID uuid.UUID, original time.Time) *entities.RecurrenceException {
	return &entities.RecurrenceException{
		ID:           uuid.New(),
		TemplateID:   templateID,
		OriginalDate: original,
		Action:       entities.ExceptionActionSkip,
	}
}

func reschedule(templateID uuid.UUID, original, newDate time.Time) *entities.RecurrenceException {
	return &entities.RecurrenceException{
		ID:           uuid.New(),
		TemplateID:   templateID,
		OriginalDate: original,
		Action:       entities.ExceptionActionReschedule,
		NewDate:      &newDate,
	}
}

func TestResolve(t *testing.T) {
	tpl := template(entities.FrequencyWeekly, day(2025, 1, 6))
	raw := Occurrences(tpl, day(2025, 1, 6), day(2025, 1, 27))

	tests := []struct {
		name       string
		exceptions []*entities.RecurrenceException
		want       []Occurrence
	}{
		{
			name: "no exceptions",
			want: []Occurrence{
				{OriginalDate: day(2025, 1, 6), DueDate: day(2025, 1, 6)},
				{OriginalDate: day(2025, 1, 13), DueDate: day(2025, 1, 13)},
				{OriginalDate: day(2025, 1, 20), DueDate: day(2025, 1, 20)},
				{OriginalDate: day(2025, 1, 27), DueDate: day(2025, 1, 27)},
			},
		},
		{
			name:       "skip drops the occurrence",
			exceptions: []*entities.RecurrenceException{skip(tpl.ID, day(2025, 1, 20))},
			want: []Occurrence{
				{OriginalDate: day(2025, 1, 6), DueDate: day(2025, 1, 6)},
				{OriginalDate: day(2025, 1, 13), DueDate: day(2025, 1, 13)},
				{OriginalDate: day(2025, 1, 27), DueDate: day(2025, 1, 27)},
			},
		},
		{
			name:       "reschedule keeps the original date",
			exceptions: []*entities.RecurrenceException{reschedule(tpl.ID, day(2025, 1, 13), day(2025, 1, 15))},
			want: []Occurrence{
				{OriginalDate: day(2025, 1, 6), DueDate: day(2025, 1, 6)},
				{OriginalDate: day(2025, 1, 13), DueDate: day(2025, 1, 15)},
				{OriginalDate: day(2025, 1, 20), DueDate: day(2025, 1, 20)},
				{OriginalDate: day(2025, 1, 27), DueDate: day(2025, 1, 27)},
			},
		},
		{
			name: "reschedule past a later occurrence keeps input order",
			exceptions: []*entities.RecurrenceException{
				reschedule(tpl.ID, day(2025, 1, 6), day(2025, 1, 30)),
				skip(tpl.ID, day(2025, 1, 27)),
			},
			want: []Occurrence{
				{OriginalDate: day(2025, 1, 6), DueDate: day(2025, 1, 30)},
				{OriginalDate: day(2025, 1, 13), DueDate: day(2025, 1, 13)},
				{OriginalDate: day(2025, 1, 20), DueDate: day(2025, 1, 20)},
			},
		},
		{
			name: "exceptions outside the window are unused",
			exceptions: []*entities.RecurrenceException{
				skip(tpl.ID, day(2025, 3, 3)),
				skip(tpl.ID, day(2025, 1, 14)),
			},
			want: []Occurrence{
				{OriginalDate: day(2025, 1, 6), DueDate: day(2025, 1, 6)},
				{OriginalDate: day(2025, 1, 13), DueDate: day(2025, 1, 13)},
				{OriginalDate: day(2025, 1, 20), DueDate: day(2025, 1, 20)},
				{OriginalDate: day(2025, 1, 27), DueDate: day(2025, 1, 27)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(raw, tt.exceptions))
		})
	}
}

func TestResolve_MatchesInstantAcrossZones(t *testing.T) {
	tpl := template(entities.FrequencyDaily, at(2025, 1, 1, 12))
	raw := Occurrences(tpl, day(2025, 1, 1), day(2025, 1, 4))
	require.Len(t, raw, 3)

	tz := time.FixedZone("UTC+2", 2*60*60)
	ex := skip(tpl.ID, time.Date(2025, 1, 2, 14, 0, 0, 0, tz))

	got := Resolve(raw, []*entities.RecurrenceException{ex})
	assert.Equal(t, []Occurrence{
		{OriginalDate: at(2025, 1, 1, 12), DueDate: at(2025, 1, 1, 12)},
		{OriginalDate: at(2025, 1, 3, 12), DueDate: at(2025, 1, 3, 12)},
	}, got)
}

func TestResolve_Empty(t *testing.T) {
	assert.Empty(t, Resolve(nil, []*entities.RecurrenceException{skip(uuid.New(), day(2025, 1, 1))}))
}
