package services

import (
	"context"
	"fmt"
	"time"

	"github.com/taskmaster/recurring/internal/domain/entities"
	"github.com/taskmaster/recurring/internal/infrastructure/logger"
	"github.com/taskmaster/recurring/internal/ports"
)

// JobReport summarizes one generate-ahead run
type JobReport struct {
	Owners  int
	Created int
	Failed  int
}

// GenerationJob materializes the configured horizon for every owner that has
// active templates. It is the periodic trigger run by the scheduler.
type GenerationJob struct {
	templateRepo ports.TemplateRepository
	generator    ports.GenerationService
	horizon      time.Duration
	logger       *logger.Logger
	now          func() time.Time
}

// NewGenerationJob creates a new generate-ahead job
func NewGenerationJob(templateRepo ports.TemplateRepository, generator ports.GenerationService, horizon time.Duration, logger *logger.Logger) *GenerationJob {
	return &GenerationJob{
		templateRepo: templateRepo,
		generator:    generator,
		horizon:      horizon,
		logger:       logger.WithComponent("generation_job"),
		now:          time.Now,
	}
}

// Run generates [now, now+horizon] per owner. Owner failures are logged and
// counted; only failing to list owners aborts the run.
func (j *GenerationJob) Run(ctx context.Context) (*JobReport, error) {
	owners, err := j.templateRepo.ListOwnersWithActiveTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list owners: %w", entities.NewStorageError("list owners", err))
	}

	from := j.now().UTC()
	to := from.Add(j.horizon)
	report := &JobReport{Owners: len(owners)}

	for _, ownerID := range owners {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		result, err := j.generator.GenerateAllForOwner(ctx, ownerID, from, to)
		if err != nil {
			report.Failed++
			j.logger.Errorw("Owner generation failed", "owner_id", ownerID, "error", err)
			continue
		}
		report.Created += result.Created
		report.Failed += result.Failed
	}

	j.logger.Infow("Generate-ahead run finished",
		"owners", report.Owners,
		"created", report.Created,
		"failed", report.Failed,
		"to", to,
	)

	return report, nil
}
