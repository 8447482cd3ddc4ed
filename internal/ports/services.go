package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/taskmaster/recurring/internal/domain/entities"
)

// RecurrenceService interface for template and exception management
type RecurrenceService interface {
	CreateTemplate(ctx context.Context, req CreateTemplateRequest) (*entities.RecurrenceTemplate, error)
	GetTemplate(ctx context.Context, id uuid.UUID) (*entities.RecurrenceTemplate, error)
	UpdateTemplate(ctx context.Context, id uuid.UUID, req UpdateTemplateRequest) (*entities.RecurrenceTemplate, error)
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
	ListTemplates(ctx context.Context, filter TemplateFilter) ([]*entities.RecurrenceTemplate, error)
	AddException(ctx context.Context, req AddExceptionRequest) (*entities.RecurrenceException, error)
	RemoveException(ctx context.Context, id uuid.UUID) error
	ListExceptions(ctx context.Context, templateID uuid.UUID) ([]*entities.RecurrenceException, error)
}

// GenerationService interface for materializing recurring instances
type GenerationService interface {
	Generate(ctx context.Context, templateID uuid.UUID, from, to time.Time) (int, error)
	GenerateAllForOwner(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (*BatchResult, error)
	ListInstances(ctx context.Context, ownerID uuid.UUID, from, to time.Time, generate bool) ([]*entities.Task, error)
}

// Request/Response Types

// Template related types
type CreateTemplateRequest struct {
	OwnerID     uuid.UUID          `json:"owner_id" validate:"required"`
	Title       string             `json:"title" validate:"required,max=500"`
	Description *string            `json:"description" validate:"omitempty,max=2000"`
	Priority    entities.Priority  `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	Frequency   entities.Frequency `json:"frequency" validate:"required,oneof=DAILY WEEKLY MONTHLY YEARLY"`
	Interval    int                `json:"interval" validate:"omitempty,min=1"`
	ByWeekDay   []entities.Weekday `json:"by_week_day" validate:"omitempty,dive,oneof=MO TU WE TH FR SA SU"`
	ByMonthDay  *int               `json:"by_month_day" validate:"omitempty,min=1,max=31"`
	StartDate   time.Time          `json:"start_date" validate:"required"`
	EndType     entities.EndType   `json:"end_type" validate:"omitempty,oneof=NEVER ON_DATE AFTER_COUNT"`
	EndDate     *time.Time         `json:"end_date"`
	Count       *int               `json:"count" validate:"omitempty,min=1"`
	IsActive    *bool              `json:"is_active"`
}

// UpdateTemplateRequest only touches the payload and activity; the rule is immutable.
type UpdateTemplateRequest struct {
	Title       *string            `json:"title" validate:"omitempty,min=1,max=500"`
	Description *string            `json:"description" validate:"omitempty,max=2000"`
	Priority    *entities.Priority `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	IsActive    *bool              `json:"is_active"`
}

// Exception related types
type AddExceptionRequest struct {
	TemplateID   uuid.UUID                `json:"-"`
	OriginalDate time.Time                `json:"original_date" validate:"required"`
	Action       entities.ExceptionAction `json:"action" validate:"required,oneof=skip reschedule"`
	NewDate      *time.Time               `json:"new_date"`
}

// Generation related types
type GenerateRequest struct {
	From time.Time `json:"from" validate:"required"`
	To   time.Time `json:"to" validate:"required"`
}

type GenerateResponse struct {
	TemplateID uuid.UUID `json:"template_id"`
	Created    int       `json:"created"`
}

// TemplateResult is the outcome of one template inside a batch run.
type TemplateResult struct {
	TemplateID uuid.UUID `json:"template_id"`
	Created    int       `json:"created"`
	Error      string    `json:"error,omitempty"`
	Err        error     `json:"-"`
}

// BatchResult reports a per-owner generation run. A failing template never
// aborts its siblings.
type BatchResult struct {
	OwnerID uuid.UUID        `json:"owner_id"`
	Created int              `json:"created"`
	Failed  int              `json:"failed"`
	Results []TemplateResult `json:"results"`
}

// Err combines the errors of the failed templates, nil when all succeeded.
func (r *BatchResult) Err() error {
	var err error
	for _, res := range r.Results {
		err = multierr.Append(err, res.Err)
	}
	return err
}

// Response types for pagination and common structures
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

type ErrorResponse struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
