package entities

import (
	"database/sql/driver"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Enums and types
type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyYearly  Frequency = "YEARLY"
)

type EndType string

const (
	EndTypeNever      EndType = "NEVER"
	EndTypeOnDate     EndType = "ON_DATE"
	EndTypeAfterCount EndType = "AFTER_COUNT"
)

type ExceptionAction string

const (
	ExceptionActionSkip       ExceptionAction = "skip"
	ExceptionActionReschedule ExceptionAction = "reschedule"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Weekday is a two-letter weekday code (MO, TU, WE, TH, FR, SA, SU).
type Weekday string

const (
	Monday    Weekday = "MO"
	Tuesday   Weekday = "TU"
	Wednesday Weekday = "WE"
	Thursday  Weekday = "TH"
	Friday    Weekday = "FR"
	Saturday  Weekday = "SA"
	Sunday    Weekday = "SU"
)

var weekdayOffsets = map[Weekday]int{
	Monday:    0,
	Tuesday:   1,
	Wednesday: 2,
	Thursday:  3,
	Friday:    4,
	Saturday:  5,
	Sunday:    6,
}

var weekOrder = [7]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Offset returns the number of days from Monday.
func (w Weekday) Offset() (int, bool) {
	off, ok := weekdayOffsets[w]
	return off, ok
}

// Weekdays is persisted as a comma separated list ("MO,WE,FR").
type Weekdays []Weekday

// Scan implements sql.Scanner
func (w *Weekdays) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*w = nil
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("weekdays: unsupported source type %T", src)
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		*w = nil
		return nil
	}

	parts := strings.Split(raw, ",")
	days := make(Weekdays, 0, len(parts))
	for _, p := range parts {
		days = append(days, Weekday(strings.TrimSpace(p)))
	}
	*w = days
	return nil
}

// Value implements driver.Valuer
func (w Weekdays) Value() (driver.Value, error) {
	if len(w) == 0 {
		return nil, nil
	}
	parts := make([]string, len(w))
	for i, d := range w {
		parts[i] = string(d)
	}
	return strings.Join(parts, ","), nil
}

// Offsets returns the sorted, de-duplicated day offsets from Monday.
func (w Weekdays) Offsets() []int {
	seen := make(map[int]bool, len(w))
	offsets := make([]int, 0, len(w))
	for _, d := range w {
		off, ok := d.Offset()
		if !ok || seen[off] {
			continue
		}
		seen[off] = true
		offsets = append(offsets, off)
	}
	sort.Ints(offsets)
	return offsets
}

// RecurrenceTemplate is the recurring definition instances are generated from
type RecurrenceTemplate struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OwnerID     uuid.UUID `json:"owner_id" db:"owner_id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description" db:"description"`
	Priority    Priority  `json:"priority" db:"priority"`

	Frequency  Frequency `json:"frequency" db:"frequency"`
	Interval   int       `json:"interval" db:"interval_value"`
	ByWeekDay  Weekdays  `json:"by_week_day,omitempty" db:"by_week_day"`
	ByMonthDay *int      `json:"by_month_day,omitempty" db:"by_month_day"`
	StartDate  time.Time `json:"start_date" db:"start_date"`

	EndType EndType    `json:"end_type" db:"end_type"`
	EndDate *time.Time `json:"end_date,omitempty" db:"end_date"`
	Count   *int       `json:"count,omitempty" db:"occurrence_count"`

	IsActive      bool       `json:"is_active" db:"is_active"`
	LastGenerated *time.Time `json:"last_generated" db:"last_generated"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// RecurrenceException overrides a single occurrence of a template
type RecurrenceException struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	TemplateID   uuid.UUID       `json:"template_id" db:"template_id"`
	OriginalDate time.Time       `json:"original_date" db:"original_date"`
	Action       ExceptionAction `json:"action" db:"action"`
	NewDate      *time.Time      `json:"new_date,omitempty" db:"new_date"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// Task is a concrete task record. Tasks produced by the recurrence engine carry
// the template that produced them and the original occurrence instant.
type Task struct {
	ID                  uuid.UUID  `json:"id" db:"id"`
	OwnerID             uuid.UUID  `json:"owner_id" db:"owner_id"`
	Title               string     `json:"title" db:"title"`
	Description         *string    `json:"description" db:"description"`
	Status              TaskStatus `json:"status" db:"status"`
	Priority            Priority   `json:"priority" db:"priority"`
	DueDate             *time.Time `json:"due_date" db:"due_date"`
	RecurringTemplateID *uuid.UUID `json:"recurring_template_id,omitempty" db:"recurring_template_id"`
	RecurringDate       *time.Time `json:"recurring_date,omitempty" db:"recurring_date"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// Business logic methods for RecurrenceTemplate

// Normalize fills defaults and converts instants to UTC.
func (t *RecurrenceTemplate) Normalize() {
	if t.Interval == 0 {
		t.Interval = 1
	}
	if t.EndType == "" {
		t.EndType = EndTypeNever
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	t.StartDate = storedInstant(t.StartDate)
	if t.EndDate != nil {
		end := storedInstant(*t.EndDate)
		t.EndDate = &end
	}
	if len(t.ByWeekDay) > 0 {
		days := make(Weekdays, 0, len(t.ByWeekDay))
		for _, off := range t.ByWeekDay.Offsets() {
			days = append(days, weekOrder[off])
		}
		// keep unknown codes so Validate can reject them
		for _, d := range t.ByWeekDay {
			if _, ok := d.Offset(); !ok {
				days = append(days, d)
			}
		}
		t.ByWeekDay = days
	}
}

// Validate checks rule consistency. Templates are validated on create/update
// so the evaluator can assume a well-formed rule.
func (t *RecurrenceTemplate) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return invalidTemplate("title is required")
	}
	if t.OwnerID == uuid.Nil {
		return invalidTemplate("owner is required")
	}
	if !t.Frequency.IsValid() {
		return invalidTemplate("unknown frequency %q", t.Frequency)
	}
	if t.Interval < 1 {
		return invalidTemplate("interval must be at least 1")
	}
	if t.StartDate.IsZero() {
		return invalidTemplate("start date is required")
	}
	if t.Priority != "" && !t.Priority.IsValid() {
		return invalidTemplate("unknown priority %q", t.Priority)
	}

	if len(t.ByWeekDay) > 0 {
		if t.Frequency != FrequencyWeekly {
			return invalidTemplate("by_week_day is only allowed for WEEKLY rules")
		}
		for _, d := range t.ByWeekDay {
			if _, ok := d.Offset(); !ok {
				return invalidTemplate("unknown weekday %q", d)
			}
		}
	}

	if t.ByMonthDay != nil {
		if t.Frequency != FrequencyMonthly {
			return invalidTemplate("by_month_day is only allowed for MONTHLY rules")
		}
		if *t.ByMonthDay < 1 || *t.ByMonthDay > 31 {
			return invalidTemplate("by_month_day must be between 1 and 31")
		}
	}

	switch t.EndType {
	case EndTypeNever:
		if t.EndDate != nil || t.Count != nil {
			return invalidTemplate("NEVER rules take neither end date nor count")
		}
	case EndTypeOnDate:
		if t.EndDate == nil {
			return invalidTemplate("ON_DATE rules require an end date")
		}
		if t.EndDate.Before(t.StartDate) {
			return invalidTemplate("end date is before start date")
		}
		if t.Count != nil {
			return invalidTemplate("ON_DATE rules take no count")
		}
	case EndTypeAfterCount:
		if t.Count == nil || *t.Count < 1 {
			return invalidTemplate("AFTER_COUNT rules require a count of at least 1")
		}
		if t.EndDate != nil {
			return invalidTemplate("AFTER_COUNT rules take no end date")
		}
	default:
		return invalidTemplate("unknown end type %q", t.EndType)
	}

	return nil
}

// NewInstance builds the task materialized for one resolved occurrence.
func (t *RecurrenceTemplate) NewInstance(originalDate, dueDate time.Time, now time.Time) *Task {
	templateID := t.ID
	original := originalDate.UTC()
	due := dueDate.UTC()

	return &Task{
		ID:                  uuid.New(),
		OwnerID:             t.OwnerID,
		Title:               t.Title,
		Description:         t.Description,
		Status:              TaskStatusTodo,
		Priority:            t.Priority,
		DueDate:             &due,
		RecurringTemplateID: &templateID,
		RecurringDate:       &original,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

// Business logic methods for RecurrenceException

// Normalize converts instants to the precision and zone they are stored with,
// so OriginalDate compares equal to the evaluator's occurrence instants.
func (e *RecurrenceException) Normalize() {
	e.OriginalDate = storedInstant(e.OriginalDate)
	if e.NewDate != nil {
		d := storedInstant(*e.NewDate)
		e.NewDate = &d
	}
}

func (e *RecurrenceException) Validate() error {
	if e.TemplateID == uuid.Nil {
		return invalidException("template is required")
	}
	if e.OriginalDate.IsZero() {
		return invalidException("original date is required")
	}

	switch e.Action {
	case ExceptionActionSkip:
		if e.NewDate != nil {
			return invalidException("skip exceptions take no new date")
		}
	case ExceptionActionReschedule:
		if e.NewDate == nil || e.NewDate.IsZero() {
			return invalidException("reschedule exceptions require a new date")
		}
	default:
		return invalidException("unknown action %q", e.Action)
	}

	return nil
}

// storedInstant drops sub-microsecond precision, which Postgres does not keep.
func storedInstant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// Business logic methods for Task
func (t *Task) IsRecurringInstance() bool {
	return t.RecurringTemplateID != nil && t.RecurringDate != nil
}

func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	return now.After(*t.DueDate) && t.Status != TaskStatusCompleted && t.Status != TaskStatusCancelled
}

// Utility methods
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	default:
		return false
	}
}

func (e EndType) IsValid() bool {
	switch e {
	case EndTypeNever, EndTypeOnDate, EndTypeAfterCount:
		return true
	default:
		return false
	}
}

func (a ExceptionAction) IsValid() bool {
	return a == ExceptionActionSkip || a == ExceptionActionReschedule
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

func (ts TaskStatus) IsValid() bool {
	switch ts {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	default:
		return false
	}
}
