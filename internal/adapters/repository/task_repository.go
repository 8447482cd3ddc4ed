package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/recurring/internal/domain/entities"
	"github.com/taskmaster/recurring/internal/ports"
)

const taskColumns = `id, owner_id, title, description, status, priority, due_date,
	recurring_template_id, recurring_date, created_at, updated_at`

// TaskRepositoryImpl implements the TaskRepository interface
type TaskRepositoryImpl struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sqlx.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

// CreateInstance inserts the task unless an instance for the same template
// and recurring date exists. The unique index decides, so concurrent
// generators never produce two rows for one occurrence.
func (r *TaskRepositoryImpl) CreateInstance(ctx context.Context, t *entities.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if t.IsRecurringInstance() {
		query += ` ON CONFLICT (recurring_template_id, recurring_date) DO NOTHING`
	}

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		t.ID, t.OwnerID, t.Title, t.Description, t.Status, t.Priority, utc(t.DueDate),
		t.RecurringTemplateID, utc(t.RecurringDate), t.CreatedAt.UTC(), t.UpdatedAt.UTC(),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return entities.ErrTemplateNotFound
		}
		return fmt.Errorf("create task instance: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create task instance: rows affected: %w", err)
	}
	if n == 0 {
		return entities.ErrDuplicateInstance
	}

	return nil
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Task, error) {
	query := r.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`)

	var t entities.Task
	err := r.db.GetContext(ctx, &t, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}

	return toUTCTask(&t), nil
}

// RecurringDatesInRange returns the recurring dates already materialized for
// the template within [start, end].
func (r *TaskRepositoryImpl) RecurringDatesInRange(ctx context.Context, templateID uuid.UUID, start, end time.Time) ([]time.Time, error) {
	query := r.db.Rebind(`
		SELECT recurring_date FROM tasks
		WHERE recurring_template_id = ? AND recurring_date >= ? AND recurring_date <= ?
		ORDER BY recurring_date`)

	var dates []time.Time
	if err := r.db.SelectContext(ctx, &dates, query, templateID, start.UTC(), end.UTC()); err != nil {
		return nil, fmt.Errorf("list recurring dates: %w", err)
	}

	for i := range dates {
		dates[i] = dates[i].UTC()
	}
	return nonNil(dates), nil
}

func (r *TaskRepositoryImpl) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.OwnerID != nil {
		where = append(where, "owner_id = ?")
		args = append(args, *filter.OwnerID)
	}
	if filter.TemplateID != nil {
		where = append(where, "recurring_template_id = ?")
		args = append(args, *filter.TemplateID)
	}
	if filter.DueAfter != nil {
		where = append(where, "due_date >= ?")
		args = append(args, filter.DueAfter.UTC())
	}
	if filter.DueBefore != nil {
		where = append(where, "due_date <= ?")
		args = append(args, filter.DueBefore.UTC())
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY due_date IS NULL, due_date, id`
	query, args = withPage(r.db, query, args, filter.Limit, filter.Offset)

	var tasks []*entities.Task
	if err := r.db.SelectContext(ctx, &tasks, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	for _, t := range tasks {
		toUTCTask(t)
	}
	return nonNil(tasks), nil
}

func toUTCTask(t *entities.Task) *entities.Task {
	t.DueDate = utc(t.DueDate)
	t.RecurringDate = utc(t.RecurringDate)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t
}
