package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/recurring/internal/domain/entities"
	"github.com/taskmaster/recurring/internal/ports"
)

func newTemplate(owner uuid.UUID, active bool) *entities.RecurrenceTemplate {
	now := time.Now().UTC()
	return &entities.RecurrenceTemplate{
		ID:        uuid.New(),
		OwnerID:   owner,
		Title:     "water plants",
		Priority:  entities.PriorityMedium,
		Frequency: entities.FrequencyDaily,
		Interval:  1,
		StartDate: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
		EndType:   entities.EndTypeNever,
		IsActive:  active,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestStore_TemplateLifecycle(t *testing.T) {
	ctx := context.Background()
	store := New()
	repo := store.Templates()
	owner := uuid.New()

	tpl := newTemplate(owner, true)
	require.NoError(t, repo.Create(ctx, tpl))

	got, err := repo.GetByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, tpl.Title, got.Title)

	got.Title = "changed without update"
	again, err := repo.GetByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "water plants", again.Title, "returned templates are copies")

	at := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.UpdateWatermark(ctx, tpl.ID, at))
	got, err = repo.GetByID(ctx, tpl.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastGenerated)
	assert.True(t, at.Equal(*got.LastGenerated))

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, entities.ErrTemplateNotFound)
}

func TestStore_ListFilters(t *testing.T) {
	ctx := context.Background()
	store := New()
	repo := store.Templates()
	owner, other := uuid.New(), uuid.New()

	require.NoError(t, repo.Create(ctx, newTemplate(owner, true)))
	require.NoError(t, repo.Create(ctx, newTemplate(owner, false)))
	require.NoError(t, repo.Create(ctx, newTemplate(other, true)))

	active, err := repo.ListActiveByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := repo.List(ctx, ports.TemplateFilter{OwnerID: &owner})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	owners, err := repo.ListOwnersWithActiveTemplates(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{owner, other}, owners)
}

func TestStore_CreateInstanceIsConditional(t *testing.T) {
	ctx := context.Background()
	store := New()
	tpl := newTemplate(uuid.New(), true)
	require.NoError(t, store.Templates().Create(ctx, tpl))

	at := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	first := tpl.NewInstance(at, at, time.Now())
	second := tpl.NewInstance(at.In(time.FixedZone("UTC+1", 3600)), at, time.Now())

	require.NoError(t, store.Tasks().CreateInstance(ctx, first))
	err := store.Tasks().CreateInstance(ctx, second)
	assert.ErrorIs(t, err, entities.ErrDuplicateInstance)

	dates, err := store.Tasks().RecurringDatesInRange(ctx, tpl.ID, at, at)
	require.NoError(t, err)
	assert.Len(t, dates, 1)
}

func TestStore_ExceptionUniqueness(t *testing.T) {
	ctx := context.Background()
	store := New()
	tpl := newTemplate(uuid.New(), true)
	require.NoError(t, store.Templates().Create(ctx, tpl))

	original := time.Date(2025, 1, 3, 9, 0, 0, 0, time.UTC)
	ex := &entities.RecurrenceException{ID: uuid.New(), TemplateID: tpl.ID, OriginalDate: original, Action: entities.ExceptionActionSkip}
	require.NoError(t, store.Exceptions().Create(ctx, ex))

	dup := &entities.RecurrenceException{ID: uuid.New(), TemplateID: tpl.ID, OriginalDate: original, Action: entities.ExceptionActionSkip}
	err := store.Exceptions().Create(ctx, dup)
	assert.ErrorIs(t, err, entities.ErrExceptionExists)
	assert.ErrorIs(t, err, entities.ErrInvalidException)

	found, err := store.Exceptions().GetByOccurrence(ctx, tpl.ID, original)
	require.NoError(t, err)
	assert.Equal(t, ex.ID, found.ID)
}

func TestStore_DeleteTemplateCascades(t *testing.T) {
	ctx := context.Background()
	store := New()
	tpl := newTemplate(uuid.New(), true)
	require.NoError(t, store.Templates().Create(ctx, tpl))

	at := time.Date(2025, 1, 2, 9, 0, 0, 0, time.UTC)
	task := tpl.NewInstance(at, at, time.Now())
	require.NoError(t, store.Tasks().CreateInstance(ctx, task))
	ex := &entities.RecurrenceException{ID: uuid.New(), TemplateID: tpl.ID, OriginalDate: at.AddDate(0, 0, 1), Action: entities.ExceptionActionSkip}
	require.NoError(t, store.Exceptions().Create(ctx, ex))

	require.NoError(t, store.Templates().Delete(ctx, tpl.ID))

	_, err := store.Tasks().GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, entities.ErrTaskNotFound)
	_, err = store.Exceptions().GetByID(ctx, ex.ID)
	assert.ErrorIs(t, err, entities.ErrExceptionNotFound)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{1, 2, 3, 4, 5}, paginate(items, 0, 0))
	assert.Equal(t, []int{3, 4}, paginate(items, 2, 2))
	assert.Empty(t, paginate(items, 2, 10))
}
