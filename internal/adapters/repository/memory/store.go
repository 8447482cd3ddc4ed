// Package memory is an in-process record store used by tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/recurring/internal/domain/entities"
	"github.com/taskmaster/recurring/internal/ports"
)

// Store keeps templates, exceptions and tasks in maps guarded by one mutex.
// The (template, recurring date) and (template, original date) uniqueness
// rules of the SQL schema are enforced the same way here.
type Store struct {
	mu         sync.RWMutex
	templates  map[uuid.UUID]*entities.RecurrenceTemplate
	exceptions map[uuid.UUID]*entities.RecurrenceException
	tasks      map[uuid.UUID]*entities.Task
	instances  map[instanceKey]uuid.UUID

	writes atomic.Int64
}

type instanceKey struct {
	templateID uuid.UUID
	at         int64
}

// New creates an empty store
func New() *Store {
	return &Store{
		templates:  make(map[uuid.UUID]*entities.RecurrenceTemplate),
		exceptions: make(map[uuid.UUID]*entities.RecurrenceException),
		tasks:      make(map[uuid.UUID]*entities.Task),
		instances:  make(map[instanceKey]uuid.UUID),
	}
}

// Writes returns the number of mutating calls the store has accepted.
func (s *Store) Writes() int64 {
	return s.writes.Load()
}

// Templates returns the template repository view of the store
func (s *Store) Templates() ports.TemplateRepository {
	return &templateRepo{s}
}

// Exceptions returns the exception repository view of the store
func (s *Store) Exceptions() ports.ExceptionRepository {
	return &exceptionRepo{s}
}

// Tasks returns the task repository view of the store
func (s *Store) Tasks() ports.TaskRepository {
	return &taskRepo{s}
}

type templateRepo struct{ s *Store }

func (r *templateRepo) Create(_ context.Context, t *entities.RecurrenceTemplate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.writes.Add(1)

	cp := *t
	r.s.templates[t.ID] = &cp
	return nil
}

func (r *templateRepo) GetByID(_ context.Context, id uuid.UUID) (*entities.RecurrenceTemplate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.templates[id]
	if !ok {
		return nil, entities.ErrTemplateNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *templateRepo) Update(_ context.Context, t *entities.RecurrenceTemplate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.templates[t.ID]; !ok {
		return entities.ErrTemplateNotFound
	}
	r.s.writes.Add(1)
	cp := *t
	r.s.templates[t.ID] = &cp
	return nil
}

func (r *templateRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.templates[id]; !ok {
		return entities.ErrTemplateNotFound
	}
	r.s.writes.Add(1)
	delete(r.s.templates, id)

	for eid, e := range r.s.exceptions {
		if e.TemplateID == id {
			delete(r.s.exceptions, eid)
		}
	}
	for key, tid := range r.s.instances {
		if key.templateID == id {
			delete(r.s.instances, key)
			delete(r.s.tasks, tid)
		}
	}
	return nil
}

func (r *templateRepo) List(_ context.Context, filter ports.TemplateFilter) ([]*entities.RecurrenceTemplate, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*entities.RecurrenceTemplate, 0)
	for _, t := range r.s.templates {
		if filter.OwnerID != nil && t.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.IsActive != nil && t.IsActive != *filter.IsActive {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return paginate(out, filter.Limit, filter.Offset), nil
}

func (r *templateRepo) ListActiveByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.RecurrenceTemplate, error) {
	active := true
	return r.List(ctx, ports.TemplateFilter{OwnerID: &ownerID, IsActive: &active})
}

func (r *templateRepo) ListOwnersWithActiveTemplates(_ context.Context) ([]uuid.UUID, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	seen := make(map[uuid.UUID]bool)
	owners := make([]uuid.UUID, 0)
	for _, t := range r.s.templates {
		if t.IsActive && !seen[t.OwnerID] {
			seen[t.OwnerID] = true
			owners = append(owners, t.OwnerID)
		}
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i].String() < owners[j].String() })
	return owners, nil
}

func (r *templateRepo) UpdateWatermark(_ context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.templates[id]
	if !ok {
		return entities.ErrTemplateNotFound
	}
	r.s.writes.Add(1)
	at = at.UTC()
	t.LastGenerated = &at
	return nil
}

type exceptionRepo struct{ s *Store }

func (r *exceptionRepo) Create(_ context.Context, e *entities.RecurrenceException) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.templates[e.TemplateID]; !ok {
		return entities.ErrTemplateNotFound
	}
	for _, existing := range r.s.exceptions {
		if existing.TemplateID == e.TemplateID && existing.OriginalDate.Equal(e.OriginalDate) {
			return entities.ErrExceptionExists
		}
	}
	r.s.writes.Add(1)
	cp := *e
	r.s.exceptions[e.ID] = &cp
	return nil
}

func (r *exceptionRepo) GetByID(_ context.Context, id uuid.UUID) (*entities.RecurrenceException, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.exceptions[id]
	if !ok {
		return nil, entities.ErrExceptionNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *exceptionRepo) GetByOccurrence(_ context.Context, templateID uuid.UUID, originalDate time.Time) (*entities.RecurrenceException, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, e := range r.s.exceptions {
		if e.TemplateID == templateID && e.OriginalDate.Equal(originalDate) {
			cp := *e
			return &cp, nil
		}
	}
	return nil, entities.ErrExceptionNotFound
}

func (r *exceptionRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.exceptions[id]; !ok {
		return entities.ErrExceptionNotFound
	}
	r.s.writes.Add(1)
	delete(r.s.exceptions, id)
	return nil
}

func (r *exceptionRepo) ListByTemplate(_ context.Context, templateID uuid.UUID) ([]*entities.RecurrenceException, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*entities.RecurrenceException, 0)
	for _, e := range r.s.exceptions {
		if e.TemplateID == templateID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OriginalDate.Before(out[j].OriginalDate) })
	return out, nil
}

type taskRepo struct{ s *Store }

func (r *taskRepo) CreateInstance(_ context.Context, t *entities.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if t.IsRecurringInstance() {
		key := instanceKey{templateID: *t.RecurringTemplateID, at: t.RecurringDate.UnixNano()}
		if _, ok := r.s.instances[key]; ok {
			return entities.ErrDuplicateInstance
		}
		r.s.instances[key] = t.ID
	}
	r.s.writes.Add(1)
	cp := *t
	r.s.tasks[t.ID] = &cp
	return nil
}

func (r *taskRepo) GetByID(_ context.Context, id uuid.UUID) (*entities.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return nil, entities.ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *taskRepo) RecurringDatesInRange(_ context.Context, templateID uuid.UUID, start, end time.Time) ([]time.Time, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	dates := make([]time.Time, 0)
	for key := range r.s.instances {
		if key.templateID != templateID {
			continue
		}
		at := time.Unix(0, key.at).UTC()
		if at.Before(start) || at.After(end) {
			continue
		}
		dates = append(dates, at)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

func (r *taskRepo) List(_ context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*entities.Task, 0)
	for _, t := range r.s.tasks {
		if filter.OwnerID != nil && t.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.TemplateID != nil && (t.RecurringTemplateID == nil || *t.RecurringTemplateID != *filter.TemplateID) {
			continue
		}
		if filter.DueAfter != nil && (t.DueDate == nil || t.DueDate.Before(*filter.DueAfter)) {
			continue
		}
		if filter.DueBefore != nil && (t.DueDate == nil || t.DueDate.After(*filter.DueBefore)) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.DueDate == nil:
			return false
		case b.DueDate == nil:
			return true
		case a.DueDate.Equal(*b.DueDate):
			return a.ID.String() < b.ID.String()
		}
		return a.DueDate.Before(*b.DueDate)
	})
	return paginate(out, filter.Limit, filter.Offset), nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
