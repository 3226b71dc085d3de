package repositories

import (
	"errors"
	"fmt"
)

type kind int

const (
	kindNotFound kind = iota + 1
	kindConflict
	kindUnavailable
)

type repoError struct {
	kind kind
	msg  string
	err  error
}

func (e *repoError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *repoError) Unwrap() error       { return e.err }
func (e *repoError) IsNotFound() bool    { return e.kind == kindNotFound }
func (e *repoError) IsConflict() bool    { return e.kind == kindConflict }
func (e *repoError) IsUnavailable() bool { return e.kind == kindUnavailable }

// NewNotFoundError reports a missing entity.
func NewNotFoundError(format string, args ...any) RepositoryError {
	return &repoError{kind: kindNotFound, msg: fmt.Sprintf(format, args...)}
}

// NewConflictError reports a write that conflicts with stored state.
func NewConflictError(format string, args ...any) RepositoryError {
	return &repoError{kind: kindConflict, msg: fmt.Sprintf(format, args...)}
}

// NewUnavailableError reports a backend outage.
func NewUnavailableError(err error, format string, args ...any) RepositoryError {
	return &repoError{kind: kindUnavailable, msg: fmt.Sprintf(format, args...), err: err}
}

// IsNotFound reports whether any RepositoryError in err's chain is a not-found failure.
func IsNotFound(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

// IsUnavailable reports whether any RepositoryError in err's chain is an outage.
func IsUnavailable(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsUnavailable()
}
