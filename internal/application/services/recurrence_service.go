package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/recurring/internal/domain/entities"
	"github.com/taskmaster/recurring/internal/infrastructure/logger"
	"github.com/taskmaster/recurring/internal/ports"
)

// RecurrenceService handles template and exception management
type RecurrenceService struct {
	templateRepo  ports.TemplateRepository
	exceptionRepo ports.ExceptionRepository
	logger        *logger.Logger
	now           func() time.Time
}

// NewRecurrenceService creates a new recurrence service
func NewRecurrenceService(templateRepo ports.TemplateRepository, exceptionRepo ports.ExceptionRepository, logger *logger.Logger) *RecurrenceService {
	return &RecurrenceService{
		templateRepo:  templateRepo,
		exceptionRepo: exceptionRepo,
		logger:        logger.WithComponent("recurrence"),
		now:           time.Now,
	}
}

// CreateTemplate validates and stores a new recurrence template
func (s *RecurrenceService) CreateTemplate(ctx context.Context, req ports.CreateTemplateRequest) (*entities.RecurrenceTemplate, error) {
	now := s.now().UTC()
	template := &entities.RecurrenceTemplate{
		ID:          uuid.New(),
		OwnerID:     req.OwnerID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Frequency:   req.Frequency,
		Interval:    req.Interval,
		ByWeekDay:   req.ByWeekDay,
		ByMonthDay:  req.ByMonthDay,
		StartDate:   req.StartDate,
		EndType:     req.EndType,
		EndDate:     req.EndDate,
		Count:       req.Count,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}

	template.Normalize()
	if err := template.Validate(); err != nil {
		return nil, err
	}

	if err := s.templateRepo.Create(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", entities.NewStorageError("create template", err))
	}

	s.logger.Infow("Recurrence template created",
		"template_id", template.ID,
		"owner_id", template.OwnerID,
		"frequency", template.Frequency,
	)

	return template, nil
}

// GetTemplate retrieves a template by ID
func (s *RecurrenceService) GetTemplate(ctx context.Context, id uuid.UUID) (*entities.RecurrenceTemplate, error) {
	template, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", entities.NewStorageError("get template", err))
	}
	return template, nil
}

// UpdateTemplate changes the payload or activity of a template. The rule is
// never touched, so instances already generated stay consistent with it.
func (s *RecurrenceService) UpdateTemplate(ctx context.Context, id uuid.UUID, req ports.UpdateTemplateRequest) (*entities.RecurrenceTemplate, error) {
	template, err := s.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		template.Title = *req.Title
	}
	if req.Description != nil {
		template.Description = req.Description
	}
	if req.Priority != nil {
		template.Priority = *req.Priority
	}
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}
	template.UpdatedAt = s.now().UTC()

	if err := template.Validate(); err != nil {
		return nil, err
	}

	if err := s.templateRepo.Update(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", entities.NewStorageError("update template", err))
	}

	s.logger.Infow("Recurrence template updated", "template_id", template.ID, "is_active", template.IsActive)

	return template, nil
}

// DeleteTemplate deletes a template together with its instances and exceptions
func (s *RecurrenceService) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	if err := s.templateRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete template: %w", entities.NewStorageError("delete template", err))
	}

	s.logger.Infow("Recurrence template deleted", "template_id", id)
	return nil
}

// ListTemplates lists templates matching filter
func (s *RecurrenceService) ListTemplates(ctx context.Context, filter ports.TemplateFilter) ([]*entities.RecurrenceTemplate, error) {
	templates, err := s.templateRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", entities.NewStorageError("list templates", err))
	}
	return templates, nil
}

// AddException overrides one occurrence of a template. An occurrence takes a
// single exception; the existing one has to be removed first.
func (s *RecurrenceService) AddException(ctx context.Context, req ports.AddExceptionRequest) (*entities.RecurrenceException, error) {
	exception := &entities.RecurrenceException{
		ID:           uuid.New(),
		TemplateID:   req.TemplateID,
		OriginalDate: req.OriginalDate,
		Action:       req.Action,
		NewDate:      req.NewDate,
		CreatedAt:    s.now().UTC(),
	}

	exception.Normalize()
	if err := exception.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.GetTemplate(ctx, req.TemplateID); err != nil {
		return nil, err
	}

	existing, err := s.exceptionRepo.GetByOccurrence(ctx, exception.TemplateID, exception.OriginalDate)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w (exception %s)", entities.ErrExceptionExists, existing.ID)
	case !errors.Is(err, entities.ErrExceptionNotFound):
		return nil, fmt.Errorf("failed to check exception: %w", entities.NewStorageError("get exception", err))
	}

	// A concurrent add can still win the race; the store rejects it with ErrExceptionExists.
	if err := s.exceptionRepo.Create(ctx, exception); err != nil {
		return nil, fmt.Errorf("failed to add exception: %w", entities.NewStorageError("create exception", err))
	}

	s.logger.Infow("Recurrence exception added",
		"exception_id", exception.ID,
		"template_id", exception.TemplateID,
		"original_date", exception.OriginalDate,
		"action", exception.Action,
	)

	return exception, nil
}

// RemoveException deletes an exception so the occurrence generates normally again
func (s *RecurrenceService) RemoveException(ctx context.Context, id uuid.UUID) error {
	if err := s.exceptionRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to remove exception: %w", entities.NewStorageError("delete exception", err))
	}

	s.logger.Infow("Recurrence exception removed", "exception_id", id)
	return nil
}

// ListExceptions lists the exceptions of a template
func (s *RecurrenceService) ListExceptions(ctx context.Context, templateID uuid.UUID) ([]*entities.RecurrenceException, error) {
	if _, err := s.GetTemplate(ctx, templateID); err != nil {
		return nil, err
	}

	exceptions, err := s.exceptionRepo.ListByTemplate(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exceptions: %w", entities.NewStorageError("list exceptions", err))
	}
	return exceptions, nil
}
