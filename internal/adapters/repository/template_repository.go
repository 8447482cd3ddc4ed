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

const templateColumns = `id, owner_id, title, description, priority, frequency, interval_value,
	by_week_day, by_month_day, start_date, end_type, end_date, occurrence_count,
	is_active, last_generated, created_at, updated_at`

// TemplateRepositoryImpl implements the TemplateRepository interface
type TemplateRepositoryImpl struct {
	db *sqlx.DB
}

// NewTemplateRepository creates a new recurrence template repository
func NewTemplateRepository(db *sqlx.DB) ports.TemplateRepository {
	return &TemplateRepositoryImpl{db: db}
}

func (r *TemplateRepositoryImpl) Create(ctx context.Context, t *entities.RecurrenceTemplate) error {
	query := r.db.Rebind(`
		INSERT INTO recurrence_templates (` + templateColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.OwnerID, t.Title, t.Description, t.Priority, t.Frequency, t.Interval,
		t.ByWeekDay, t.ByMonthDay, t.StartDate.UTC(), t.EndType, utc(t.EndDate), t.Count,
		t.IsActive, utc(t.LastGenerated), t.CreatedAt.UTC(), t.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("create template: %w", err)
	}

	return nil
}

func (r *TemplateRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.RecurrenceTemplate, error) {
	query := r.db.Rebind(`SELECT ` + templateColumns + ` FROM recurrence_templates WHERE id = ?`)

	var t entities.RecurrenceTemplate
	err := r.db.GetContext(ctx, &t, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("get template by id: %w", err)
	}

	return toUTCTemplate(&t), nil
}

// Update rewrites the mutable fields. The rule itself is fixed at creation.
func (r *TemplateRepositoryImpl) Update(ctx context.Context, t *entities.RecurrenceTemplate) error {
	query := r.db.Rebind(`
		UPDATE recurrence_templates
		SET title = ?, description = ?, priority = ?, is_active = ?, updated_at = ?
		WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query,
		t.Title, t.Description, t.Priority, t.IsActive, t.UpdatedAt.UTC(), t.ID)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}

	return expectRow(res, entities.ErrTemplateNotFound)
}

// Delete removes the template. Exceptions and instances go with it through
// ON DELETE CASCADE.
func (r *TemplateRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	query := r.db.Rebind(`DELETE FROM recurrence_templates WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}

	return expectRow(res, entities.ErrTemplateNotFound)
}

func (r *TemplateRepositoryImpl) List(ctx context.Context, filter ports.TemplateFilter) ([]*entities.RecurrenceTemplate, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.OwnerID != nil {
		where = append(where, "owner_id = ?")
		args = append(args, *filter.OwnerID)
	}
	if filter.IsActive != nil {
		where = append(where, "is_active = ?")
		args = append(args, *filter.IsActive)
	}

	query := `SELECT ` + templateColumns + ` FROM recurrence_templates`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, id`
	query, args = withPage(r.db, query, args, filter.Limit, filter.Offset)

	var templates []*entities.RecurrenceTemplate
	if err := r.db.SelectContext(ctx, &templates, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	for _, t := range templates {
		toUTCTemplate(t)
	}
	return nonNil(templates), nil
}

func (r *TemplateRepositoryImpl) ListActiveByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.RecurrenceTemplate, error) {
	active := true
	return r.List(ctx, ports.TemplateFilter{OwnerID: &ownerID, IsActive: &active})
}

func (r *TemplateRepositoryImpl) ListOwnersWithActiveTemplates(ctx context.Context) ([]uuid.UUID, error) {
	query := r.db.Rebind(`
		SELECT DISTINCT owner_id FROM recurrence_templates
		WHERE is_active = ?
		ORDER BY owner_id`)

	var owners []uuid.UUID
	if err := r.db.SelectContext(ctx, &owners, query, true); err != nil {
		return nil, fmt.Errorf("list owners with active templates: %w", err)
	}

	return nonNil(owners), nil
}

func (r *TemplateRepositoryImpl) UpdateWatermark(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := r.db.Rebind(`UPDATE recurrence_templates SET last_generated = ? WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("update template watermark: %w", err)
	}

	return expectRow(res, entities.ErrTemplateNotFound)
}

func toUTCTemplate(t *entities.RecurrenceTemplate) *entities.RecurrenceTemplate {
	t.StartDate = t.StartDate.UTC()
	t.EndDate = utc(t.EndDate)
	t.LastGenerated = utc(t.LastGenerated)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t
}

func expectRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func withPage(db *sqlx.DB, query string, args []interface{}, limit, offset int) (string, []interface{}) {
	switch {
	case limit > 0:
		query += ` LIMIT ?`
		args = append(args, limit)
	case offset > 0 && db.DriverName() == "sqlite3":
		// SQLite has no OFFSET without LIMIT
		query += ` LIMIT -1`
	}
	if offset > 0 {
		query += ` OFFSET ?`
		args = append(args, offset)
	}
	return query, args
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return make([]T, 0)
	}
	return items
}
