package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/recurring/internal/domain/entities"
	"github.com/taskmaster/recurring/internal/ports"
)

const exceptionColumns = `id, template_id, original_date, action, new_date, created_at`

// ExceptionRepositoryImpl implements the ExceptionRepository interface
type ExceptionRepositoryImpl struct {
	db *sqlx.DB
}

// NewExceptionRepository creates a new recurrence exception repository
func NewExceptionRepository(db *sqlx.DB) ports.ExceptionRepository {
	return &ExceptionRepositoryImpl{db: db}
}

func (r *ExceptionRepositoryImpl) Create(ctx context.Context, e *entities.RecurrenceException) error {
	query := r.db.Rebind(`
		INSERT INTO recurrence_exceptions (` + exceptionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)`)

	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.TemplateID, e.OriginalDate.UTC(), e.Action, utc(e.NewDate), e.CreatedAt.UTC())
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return entities.ErrExceptionExists
	case isForeignKeyViolation(err):
		return entities.ErrTemplateNotFound
	}
	return fmt.Errorf("create exception: %w", err)
}

func (r *ExceptionRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.RecurrenceException, error) {
	query := r.db.Rebind(`SELECT ` + exceptionColumns + ` FROM recurrence_exceptions WHERE id = ?`)
	return r.get(ctx, "get exception by id", query, id)
}

func (r *ExceptionRepositoryImpl) GetByOccurrence(ctx context.Context, templateID uuid.UUID, originalDate time.Time) (*entities.RecurrenceException, error) {
	query := r.db.Rebind(`
		SELECT ` + exceptionColumns + ` FROM recurrence_exceptions
		WHERE template_id = ? AND original_date = ?`)
	return r.get(ctx, "get exception by occurrence", query, templateID, originalDate.UTC())
}

func (r *ExceptionRepositoryImpl) get(ctx context.Context, op, query string, args ...interface{}) (*entities.RecurrenceException, error) {
	var e entities.RecurrenceException
	err := r.db.GetContext(ctx, &e, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrExceptionNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toUTCException(&e), nil
}

func (r *ExceptionRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	query := r.db.Rebind(`DELETE FROM recurrence_exceptions WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete exception: %w", err)
	}

	return expectRow(res, entities.ErrExceptionNotFound)
}

func (r *ExceptionRepositoryImpl) ListByTemplate(ctx context.Context, templateID uuid.UUID) ([]*entities.RecurrenceException, error) {
	query := r.db.Rebind(`
		SELECT ` + exceptionColumns + ` FROM recurrence_exceptions
		WHERE template_id = ?
		ORDER BY original_date`)

	var exceptions []*entities.RecurrenceException
	if err := r.db.SelectContext(ctx, &exceptions, query, templateID); err != nil {
		return nil, fmt.Errorf("list exceptions: %w", err)
	}

	for _, e := range exceptions {
		toUTCException(e)
	}
	return nonNil(exceptions), nil
}

func toUTCException(e *entities.RecurrenceException) *entities.RecurrenceException {
	e.OriginalDate = e.OriginalDate.UTC()
	e.NewDate = utc(e.NewDate)
	e.CreatedAt = e.CreatedAt.UTC()
	return e
}
