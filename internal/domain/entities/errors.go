package entities

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrTemplateNotFound  = errors.New("recurrence template not found")
	ErrExceptionNotFound = errors.New("recurrence exception not found")
	ErrTaskNotFound      = errors.New("task not found")
	ErrInvalidTemplate   = errors.New("invalid recurrence template")
	ErrInvalidException  = errors.New("invalid recurrence exception")
	ErrInvalidWindow     = errors.New("invalid generation window")
	ErrStorage           = errors.New("storage error")

	// ErrExceptionExists is an ErrInvalidException: the caller must remove the
	// existing override before adding another one for the same occurrence.
	ErrExceptionExists = fmt.Errorf("%w: occurrence already has an exception", ErrInvalidException)

	// ErrDuplicateInstance is returned by the task store when an instance for
	// (template, recurring date) already exists.
	ErrDuplicateInstance = errors.New("recurring instance already exists")
)

// StorageError wraps a failure of the record store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorage, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is reports StorageError as ErrStorage.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// NewStorageError wraps err unless it is already a domain error the caller
// is expected to branch on.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrTemplateNotFound),
		errors.Is(err, ErrExceptionNotFound),
		errors.Is(err, ErrTaskNotFound),
		errors.Is(err, ErrDuplicateInstance),
		errors.Is(err, ErrExceptionExists),
		errors.Is(err, ErrStorage):
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func invalidTemplate(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidTemplate, fmt.Sprintf(format, args...))
}

func invalidException(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidException, fmt.Sprintf(format, args...))
}
