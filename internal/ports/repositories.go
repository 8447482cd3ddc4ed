package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskmaster/recurring/internal/domain/entities"
)

// TemplateRepository defines the interface for recurrence template data operations
type TemplateRepository interface {
	Create(ctx context.Context, template *entities.RecurrenceTemplate) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.RecurrenceTemplate, error)
	Update(ctx context.Context, template *entities.RecurrenceTemplate) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter TemplateFilter) ([]*entities.RecurrenceTemplate, error)
	ListActiveByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.RecurrenceTemplate, error)
	ListOwnersWithActiveTemplates(ctx context.Context) ([]uuid.UUID, error)
	UpdateWatermark(ctx context.Context, id uuid.UUID, at time.Time) error
}

// ExceptionRepository defines the interface for recurrence exception data operations.
// Create returns entities.ErrExceptionExists when (template, original date) is taken.
type ExceptionRepository interface {
	Create(ctx context.Context, exception *entities.RecurrenceException) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.RecurrenceException, error)
	GetByOccurrence(ctx context.Context, templateID uuid.UUID, originalDate time.Time) (*entities.RecurrenceException, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByTemplate(ctx context.Context, templateID uuid.UUID) ([]*entities.RecurrenceException, error)
}

// TaskRepository defines the interface for task data operations.
// CreateInstance is a conditional insert: it returns entities.ErrDuplicateInstance
// when an instance for (recurring template, recurring date) already exists.
type TaskRepository interface {
	CreateInstance(ctx context.Context, task *entities.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Task, error)
	RecurringDatesInRange(ctx context.Context, templateID uuid.UUID, start, end time.Time) ([]time.Time, error)
	List(ctx context.Context, filter TaskFilter) ([]*entities.Task, error)
}

// GenerationThrottle defines the interface for rate limiting view-triggered generation.
// Acquire reports whether the caller won the slot for key during ttl; Release
// gives a slot back before it expires.
type GenerationThrottle interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Filter types for repository queries
type TemplateFilter struct {
	OwnerID  *uuid.UUID
	IsActive *bool
	Limit    int
	Offset   int
}

type TaskFilter struct {
	OwnerID    *uuid.UUID
	TemplateID *uuid.UUID
	DueAfter   *time.Time
	DueBefore  *time.Time
	Limit      int
	Offset     int
}
