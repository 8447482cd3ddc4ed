package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/taskmaster/recurring/internal/domain/entities"
	"github.com/taskmaster/recurring/internal/domain/recurrence"
	"github.com/taskmaster/recurring/internal/infrastructure/config"
	"github.com/taskmaster/recurring/internal/infrastructure/logger"
	"github.com/taskmaster/recurring/internal/infrastructure/metrics"
	"github.com/taskmaster/recurring/internal/ports"
)

// GenerationService materializes recurring task instances. It is safe for
// concurrent and overlapping calls: the set of existing instances is read from
// the store on every call and the store rejects duplicate instances.
type GenerationService struct {
	templateRepo  ports.TemplateRepository
	exceptionRepo ports.ExceptionRepository
	taskRepo      ports.TaskRepository
	throttle      ports.GenerationThrottle
	metrics       *metrics.Generation
	config        config.GenerationConfig
	logger        *logger.Logger
	now           func() time.Time
}

// NewGenerationService creates a new generation service. throttle may be nil.
func NewGenerationService(
	templateRepo ports.TemplateRepository,
	exceptionRepo ports.ExceptionRepository,
	taskRepo ports.TaskRepository,
	throttle ports.GenerationThrottle,
	metrics *metrics.Generation,
	cfg config.GenerationConfig,
	logger *logger.Logger,
) *GenerationService {
	return &GenerationService{
		templateRepo:  templateRepo,
		exceptionRepo: exceptionRepo,
		taskRepo:      taskRepo,
		throttle:      throttle,
		metrics:       metrics,
		config:        cfg,
		logger:        logger.WithComponent("generation"),
		now:           time.Now,
	}
}

// Generate materializes the missing instances of a template inside
// [from, to] and returns how many were created. Inactive templates are a
// no-op. A failure part way leaves the created instances in place; running
// the same call again creates only the rest.
func (s *GenerationService) Generate(ctx context.Context, templateID uuid.UUID, from, to time.Time) (int, error) {
	if err := s.checkWindow(from, to); err != nil {
		return 0, err
	}

	start := s.now()
	created, result, err := s.materialize(ctx, templateID, from.UTC(), to.UTC())
	duration := s.now().Sub(start)

	s.metrics.ObserveRun(result, created, duration)
	s.logger.LogGeneration(templateID.String(), from, to, created, duration, err)

	return created, err
}

func (s *GenerationService) materialize(ctx context.Context, templateID uuid.UUID, from, to time.Time) (int, string, error) {
	template, err := s.templateRepo.GetByID(ctx, templateID)
	if err != nil {
		return 0, metrics.ResultError, fmt.Errorf("failed to load template %s: %w", templateID, entities.NewStorageError("get template", err))
	}
	if !template.IsActive {
		return 0, metrics.ResultNoop, nil
	}

	existingDates, err := s.taskRepo.RecurringDatesInRange(ctx, templateID, from, to)
	if err != nil {
		return 0, metrics.ResultError, fmt.Errorf("failed to load instances: %w", entities.NewStorageError("list instances", err))
	}
	existing := make(map[int64]struct{}, len(existingDates))
	for _, d := range existingDates {
		existing[d.UnixNano()] = struct{}{}
	}

	exceptions, err := s.exceptionRepo.ListByTemplate(ctx, templateID)
	if err != nil {
		return 0, metrics.ResultError, fmt.Errorf("failed to load exceptions: %w", entities.NewStorageError("list exceptions", err))
	}

	resolved := recurrence.Resolve(recurrence.Occurrences(template, from, to), exceptions)

	now := s.now().UTC()
	created := 0
	for _, occ := range resolved {
		if _, ok := existing[occ.OriginalDate.UnixNano()]; ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return created, metrics.ResultError, err
		}

		instance := template.NewInstance(occ.OriginalDate, occ.DueDate, now)
		err := s.taskRepo.CreateInstance(ctx, instance)
		if errors.Is(err, entities.ErrDuplicateInstance) {
			s.metrics.Conflicts.Inc()
			s.logger.Debugw("Instance already materialized",
				"template_id", templateID,
				"recurring_date", occ.OriginalDate,
			)
			continue
		}
		if err != nil {
			return created, metrics.ResultError, fmt.Errorf("failed to create instance for %s: %w",
				occ.OriginalDate.Format(time.RFC3339), entities.NewStorageError("create instance", err))
		}
		created++
	}

	// The watermark is observational only, so failing to stamp it does not fail the run.
	if err := s.templateRepo.UpdateWatermark(ctx, templateID, now); err != nil {
		s.logger.Warnw("Failed to update generation watermark", "template_id", templateID, "error", err)
	}

	return created, metrics.ResultOK, nil
}

// GenerateAllForOwner runs Generate for every active template of an owner,
// in parallel up to the configured concurrency. A failing template is
// reported in the result and never stops its siblings; the returned error is
// only set when the templates could not be listed.
func (s *GenerationService) GenerateAllForOwner(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (*ports.BatchResult, error) {
	if err := s.checkWindow(from, to); err != nil {
		return nil, err
	}

	templates, err := s.templateRepo.ListActiveByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", entities.NewStorageError("list templates", err))
	}

	result := &ports.BatchResult{
		OwnerID: ownerID,
		Results: make([]ports.TemplateResult, len(templates)),
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.concurrency())

	for i, template := range templates {
		i, template := i, template
		g.Go(func() error {
			created, err := s.Generate(ctx, template.ID, from, to)

			res := ports.TemplateResult{TemplateID: template.ID, Created: created, Err: err}
			if err != nil {
				res.Error = err.Error()
			}

			mu.Lock()
			defer mu.Unlock()
			result.Results[i] = res
			result.Created += created
			if err != nil {
				result.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := result.Err(); err != nil {
		s.logger.Warnw("Owner generation finished with failures",
			"owner_id", ownerID,
			"failed", result.Failed,
			"created", result.Created,
			"error", err,
		)
	}

	return result, nil
}

// ListInstances returns an owner's tasks due inside [from, to]. With generate
// set it first materializes the window, at most once per owner and window per
// throttle period.
func (s *GenerationService) ListInstances(ctx context.Context, ownerID uuid.UUID, from, to time.Time, generate bool) ([]*entities.Task, error) {
	if err := s.checkWindow(from, to); err != nil {
		return nil, err
	}

	if generate {
		if key, ok := s.acquire(ctx, ownerID, from, to); ok {
			if _, err := s.GenerateAllForOwner(ctx, ownerID, from, to); err != nil {
				s.release(ctx, key)
				return nil, err
			}
		}
	}

	from, to = from.UTC(), to.UTC()
	tasks, err := s.taskRepo.List(ctx, ports.TaskFilter{
		OwnerID:   &ownerID,
		DueAfter:  &from,
		DueBefore: &to,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", entities.NewStorageError("list tasks", err))
	}
	return tasks, nil
}

// acquire fails open: generation is idempotent, so a throttle outage only
// costs redundant work.
// The returned key is empty when no slot was taken.
func (s *GenerationService) acquire(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (string, bool) {
	if s.throttle == nil || !s.config.ThrottleEnabled {
		return "", true
	}

	key := fmt.Sprintf("recurring:generate:%s:%s:%s", ownerID, from.UTC().Format("20060102"), to.UTC().Format("20060102"))
	ok, err := s.throttle.Acquire(ctx, key, s.config.ThrottleTTL)
	if err != nil {
		s.logger.Warnw("Generation throttle unavailable", "owner_id", ownerID, "error", err)
		return "", true
	}
	return key, ok
}

// release frees the slot after a failed run so the next view retries.
func (s *GenerationService) release(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.throttle.Release(ctx, key); err != nil {
		s.logger.Warnw("Failed to release generation throttle", "key", key, "error", err)
	}
}

func (s *GenerationService) checkWindow(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return fmt.Errorf("%w: from and to are required", entities.ErrInvalidWindow)
	}
	if to.Before(from) {
		return fmt.Errorf("%w: to is before from", entities.ErrInvalidWindow)
	}
	if s.config.MaxWindow > 0 && to.Sub(from) > s.config.MaxWindow {
		return fmt.Errorf("%w: window exceeds %s", entities.ErrInvalidWindow, s.config.MaxWindow)
	}
	return nil
}

func (s *GenerationService) concurrency() int {
	if s.config.Concurrency < 1 {
		return 1
	}
	return s.config.Concurrency
}
