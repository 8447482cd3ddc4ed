package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/recurring/internal/application/services"
	"github.com/taskmaster/recurring/internal/domain/entities"
	"github.com/taskmaster/recurring/internal/infrastructure/config"
	"github.com/taskmaster/recurring/internal/infrastructure/database"
	"github.com/taskmaster/recurring/internal/infrastructure/logger"
	"github.com/taskmaster/recurring/internal/infrastructure/metrics"
	"github.com/taskmaster/recurring/internal/ports"
)

var created = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.MigrateUp()
	require.NoError(t, err)
	return db
}

func newTemplate(owner uuid.UUID, active bool) *entities.RecurrenceTemplate {
	desc := "front and back"
	return &entities.RecurrenceTemplate{
		ID:          uuid.New(),
		OwnerID:     owner,
		Title:       "water plants",
		Description: &desc,
		Priority:    entities.PriorityMedium,
		Frequency:   entities.FrequencyWeekly,
		Interval:    2,
		ByWeekDay:   entities.Weekdays{entities.Monday, entities.Thursday},
		StartDate:   time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC),
		EndType:     entities.EndTypeNever,
		IsActive:    active,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func TestTemplateRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewTemplateRepository(db.DB)
	owner := uuid.New()

	tpl := newTemplate(owner, true)
	require.NoError(t, repo.Create(ctx, tpl))

	got, err := repo.GetByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tpl, got)

	count := 3
	monthly := newTemplate(owner, true)
	monthly.Frequency, monthly.ByWeekDay = entities.FrequencyMonthly, nil
	monthly.EndType, monthly.Count = entities.EndTypeAfterCount, &count
	day := 31
	monthly.ByMonthDay = &day
	monthly.CreatedAt = created.Add(time.Minute)
	require.NoError(t, repo.Create(ctx, monthly))

	got, err = repo.GetByID(ctx, monthly.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ByWeekDay)
	assert.Equal(t, 31, *got.ByMonthDay)
	assert.Equal(t, 3, *got.Count)

	tpl.Title = "water all plants"
	tpl.IsActive = false
	tpl.UpdatedAt = created.Add(time.Hour)
	require.NoError(t, repo.Update(ctx, tpl))

	got, err = repo.GetByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "water all plants", got.Title)
	assert.False(t, got.IsActive)

	at := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateWatermark(ctx, monthly.ID, at))
	got, err = repo.GetByID(ctx, monthly.ID)
	require.NoError(t, err)
	assert.Equal(t, at, *got.LastGenerated)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, entities.ErrTemplateNotFound)
	assert.ErrorIs(t, repo.Update(ctx, newTemplate(owner, true)), entities.ErrTemplateNotFound)
	assert.ErrorIs(t, repo.UpdateWatermark(ctx, uuid.New(), at), entities.ErrTemplateNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), entities.ErrTemplateNotFound)
}

func TestTemplateRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewTemplateRepository(newTestDB(t).DB)
	owner, other := uuid.New(), uuid.New()

	for i, tpl := range []*entities.RecurrenceTemplate{
		newTemplate(owner, true),
		newTemplate(owner, false),
		newTemplate(owner, true),
		newTemplate(other, true),
	} {
		tpl.CreatedAt = created.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.Create(ctx, tpl))
	}

	all, err := repo.List(ctx, ports.TemplateFilter{OwnerID: &owner})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	active, err := repo.ListActiveByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, active, 2)

	page, err := repo.List(ctx, ports.TemplateFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, all[1].ID, page[0].ID)

	tail, err := repo.List(ctx, ports.TemplateFilter{Offset: 3})
	require.NoError(t, err)
	assert.Len(t, tail, 1)

	owners, err := repo.ListOwnersWithActiveTemplates(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{owner, other}, owners)

	none, err := repo.List(ctx, ports.TemplateFilter{OwnerID: ptr(uuid.New())})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestExceptionRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	templates := NewTemplateRepository(db.DB)
	repo := NewExceptionRepository(db.DB)

	tpl := newTemplate(uuid.New(), true)
	require.NoError(t, templates.Create(ctx, tpl))

	original := time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC)
	newDate := original.AddDate(0, 0, 2)
	skip := &entities.RecurrenceException{
		ID:           uuid.New(),
		TemplateID:   tpl.ID,
		OriginalDate: time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC),
		Action:       entities.ExceptionActionSkip,
		CreatedAt:    created,
	}
	move := &entities.RecurrenceException{
		ID:           uuid.New(),
		TemplateID:   tpl.ID,
		OriginalDate: original,
		Action:       entities.ExceptionActionReschedule,
		NewDate:      &newDate,
		CreatedAt:    created,
	}
	require.NoError(t, repo.Create(ctx, move))
	require.NoError(t, repo.Create(ctx, skip))

	got, err := repo.GetByOccurrence(ctx, tpl.ID, original.In(time.FixedZone("UTC+1", 3600)))
	require.NoError(t, err)
	assert.Equal(t, move, got)

	listed, err := repo.ListByTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, skip.ID, listed[0].ID, "ordered by original date")

	dup := *skip
	dup.ID = uuid.New()
	assert.ErrorIs(t, repo.Create(ctx, &dup), entities.ErrExceptionExists)

	orphan := *skip
	orphan.ID, orphan.TemplateID = uuid.New(), uuid.New()
	assert.ErrorIs(t, repo.Create(ctx, &orphan), entities.ErrTemplateNotFound)

	require.NoError(t, repo.Delete(ctx, skip.ID))
	_, err = repo.GetByID(ctx, skip.ID)
	assert.ErrorIs(t, err, entities.ErrExceptionNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, skip.ID), entities.ErrExceptionNotFound)

	_, err = repo.GetByOccurrence(ctx, tpl.ID, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, entities.ErrExceptionNotFound)
}

func TestTaskRepository_CreateInstance(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	templates := NewTemplateRepository(db.DB)
	repo := NewTaskRepository(db.DB)

	tpl := newTemplate(uuid.New(), true)
	require.NoError(t, templates.Create(ctx, tpl))

	first := tpl.StartDate
	second := first.AddDate(0, 0, 3)
	task := tpl.NewInstance(first, first, created)
	require.NoError(t, repo.CreateInstance(ctx, task))
	require.NoError(t, repo.CreateInstance(ctx, tpl.NewInstance(second, second.AddDate(0, 0, 1), created)))

	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task, got)

	err = repo.CreateInstance(ctx, tpl.NewInstance(first, first.AddDate(0, 0, 5), created))
	assert.ErrorIs(t, err, entities.ErrDuplicateInstance)

	orphan := newTemplate(tpl.OwnerID, true)
	err = repo.CreateInstance(ctx, orphan.NewInstance(first, first, created))
	assert.ErrorIs(t, err, entities.ErrTemplateNotFound)

	dates, err := repo.RecurringDatesInRange(ctx, tpl.ID, first, second)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{first, second}, dates)

	dates, err = repo.RecurringDatesInRange(ctx, tpl.ID, first.Add(time.Second), second)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{second}, dates)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
}

func TestTaskRepository_List(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	templates := NewTemplateRepository(db.DB)
	repo := NewTaskRepository(db.DB)

	tpl := newTemplate(uuid.New(), true)
	require.NoError(t, templates.Create(ctx, tpl))
	for i := 0; i < 4; i++ {
		at := tpl.StartDate.AddDate(0, 0, 7*i)
		require.NoError(t, repo.CreateInstance(ctx, tpl.NewInstance(at, at, created)))
	}

	after := tpl.StartDate.AddDate(0, 0, 7)
	before := tpl.StartDate.AddDate(0, 0, 14)
	tasks, err := repo.List(ctx, ports.TaskFilter{TemplateID: &tpl.ID, DueAfter: &after, DueBefore: &before})
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, after, *tasks[0].DueDate)
	assert.Equal(t, before, *tasks[1].DueDate)

	page, err := repo.List(ctx, ports.TaskFilter{OwnerID: &tpl.OwnerID, Limit: 1, Offset: 3})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, tpl.StartDate.AddDate(0, 0, 21), *page[0].DueDate)
}

func TestTemplateDelete_Cascades(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	templates := NewTemplateRepository(db.DB)
	exceptions := NewExceptionRepository(db.DB)
	tasks := NewTaskRepository(db.DB)

	tpl := newTemplate(uuid.New(), true)
	require.NoError(t, templates.Create(ctx, tpl))
	require.NoError(t, tasks.CreateInstance(ctx, tpl.NewInstance(tpl.StartDate, tpl.StartDate, created)))
	require.NoError(t, exceptions.Create(ctx, &entities.RecurrenceException{
		ID:           uuid.New(),
		TemplateID:   tpl.ID,
		OriginalDate: tpl.StartDate.AddDate(0, 0, 3),
		Action:       entities.ExceptionActionSkip,
		CreatedAt:    created,
	}))

	require.NoError(t, templates.Delete(ctx, tpl.ID))

	left, err := tasks.List(ctx, ports.TaskFilter{TemplateID: &tpl.ID})
	require.NoError(t, err)
	assert.Empty(t, left)

	ex, err := exceptions.ListByTemplate(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Empty(t, ex)
}

func TestGeneration_ConcurrentOverSQLite(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	templates := NewTemplateRepository(db.DB)
	exceptions := NewExceptionRepository(db.DB)
	tasks := NewTaskRepository(db.DB)

	cfg := config.GenerationConfig{Horizon: 30 * 24 * time.Hour, Concurrency: 2, MaxWindow: 400 * 24 * time.Hour}
	log := logger.NewNop()
	recurrence := services.NewRecurrenceService(templates, exceptions, log)
	generation := services.NewGenerationService(templates, exceptions, tasks, nil,
		metrics.NewGeneration(prometheus.NewRegistry()), cfg, log)

	tpl, err := recurrence.CreateTemplate(ctx, ports.CreateTemplateRequest{
		OwnerID:   uuid.New(),
		Title:     "stand-up",
		Frequency: entities.FrequencyDaily,
		StartDate: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := generation.Generate(ctx, tpl.ID, from, to)
			assert.NoError(t, err)
			mu.Lock()
			total += n
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 30, total, "each occurrence is created by exactly one caller")

	dates, err := tasks.RecurringDatesInRange(ctx, tpl.ID, from, to)
	require.NoError(t, err)
	assert.Len(t, dates, 30)
}

func ptr[T any](v T) *T { return &v }
