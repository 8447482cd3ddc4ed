package services

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/recurring/internal/adapters/repository/memory"
	"github.com/taskmaster/recurring/internal/domain/entities"
	"github.com/taskmaster/recurring/internal/infrastructure/config"
	"github.com/taskmaster/recurring/internal/infrastructure/logger"
	"github.com/taskmaster/recurring/internal/infrastructure/metrics"
	"github.com/taskmaster/recurring/internal/ports"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }

func testGenerationConfig() config.GenerationConfig {
	return config.GenerationConfig{
		Horizon:         30 * 24 * time.Hour,
		Concurrency:     4,
		MaxWindow:       400 * 24 * time.Hour,
		ThrottleEnabled: true,
		ThrottleTTL:     time.Minute,
	}
}

type fixture struct {
	store      *memory.Store
	metrics    *metrics.Generation
	recurrence *RecurrenceService
	generation *GenerationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	return newFixtureWith(t, store, store.Tasks(), nil)
}

func newFixtureWith(t *testing.T, store *memory.Store, tasks ports.TaskRepository, throttle ports.GenerationThrottle) *fixture {
	t.Helper()
	m := metrics.NewGeneration(prometheus.NewRegistry())
	log := logger.NewNop()

	return &fixture{
		store:      store,
		metrics:    m,
		recurrence: NewRecurrenceService(store.Templates(), store.Exceptions(), log),
		generation: NewGenerationService(store.Templates(), store.Exceptions(), tasks, throttle, m, testGenerationConfig(), log),
	}
}

func (f *fixture) createTemplate(t *testing.T, req ports.CreateTemplateRequest) *entities.RecurrenceTemplate {
	t.Helper()
	if req.OwnerID == uuid.Nil {
		req.OwnerID = uuid.New()
	}
	if req.Title == "" {
		req.Title = "recurring task"
	}
	tpl, err := f.recurrence.CreateTemplate(context.Background(), req)
	require.NoError(t, err)
	return tpl
}

// mondays is a WEEKLY template every Monday from 2025-01-06.
func mondays(owner uuid.UUID) ports.CreateTemplateRequest {
	return ports.CreateTemplateRequest{
		OwnerID:   owner,
		Title:     "weekly review",
		Frequency: entities.FrequencyWeekly,
		ByWeekDay: []entities.Weekday{entities.Monday},
		StartDate: day(2025, 1, 6),
	}
}

func (f *fixture) instances(t *testing.T, templateID uuid.UUID) []*entities.Task {
	t.Helper()
	tasks, err := f.store.Tasks().List(context.Background(), ports.TaskFilter{TemplateID: &templateID})
	require.NoError(t, err)
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].RecurringDate.Before(*tasks[j].RecurringDate) })
	return tasks
}

func recurringDates(tasks []*entities.Task) []time.Time {
	out := make([]time.Time, len(tasks))
	for i, task := range tasks {
		out[i] = *task.RecurringDate
	}
	return out
}

type fakeThrottle struct {
	mu       sync.Mutex
	taken    map[string]bool
	err      error
	calls    int
	releases int
}

func newFakeThrottle() *fakeThrottle {
	return &fakeThrottle{taken: make(map[string]bool)}
}

func (f *fakeThrottle) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	if f.taken[key] {
		return false, nil
	}
	f.taken[key] = true
	return true, nil
}

func (f *fakeThrottle) Release(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases++
	delete(f.taken, key)
	return f.err
}
