package persist

import (
	"errors"
	"fmt"
)

// Kind classifies persistence failures by how the engine reacts to them.
type Kind string

const (
	// KindQuotaExceeded: the store is full. Retried, then surfaced with the
	// pending queue kept.
	KindQuotaExceeded Kind = "quota_exceeded"
	// KindCorrupt: stored bytes are not a readable envelope. Triggers
	// backup recovery.
	KindCorrupt Kind = "corrupt"
	// KindValidationFailed: required sections missing or invariants broken.
	KindValidationFailed Kind = "validation_failed"
	// KindSerializationFailed: the document could not be encoded. Fatal for
	// that flush only.
	KindSerializationFailed Kind = "serialization_failed"
	// KindMigrationFailed: the migrator rejected a stored document.
	KindMigrationFailed Kind = "migration_failed"
	// KindWriteFailed: any other store error after retries.
	KindWriteFailed Kind = "write_failed"
)

// Sentinels for errors.Is; every *Error matches the sentinel of its Kind.
var (
	ErrQuotaExceeded       = &Error{Kind: KindQuotaExceeded}
	ErrCorrupt             = &Error{Kind: KindCorrupt}
	ErrValidationFailed    = &Error{Kind: KindValidationFailed}
	ErrSerializationFailed = &Error{Kind: KindSerializationFailed}
	ErrMigrationFailed     = &Error{Kind: KindMigrationFailed}
	ErrWriteFailed         = &Error{Kind: KindWriteFailed}

	// ErrClosed is returned by writes after Close.
	ErrClosed = errors.New("persistence engine closed")
	// ErrNoData is returned by CreateBackup when nothing has been stored yet.
	ErrNoData = errors.New("no stored document to back up")
)

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op == "" && e.Err == nil:
		return string(e.Kind)
	case e.Err == nil:
		return fmt.Sprintf("persist %s: %s", e.Op, e.Kind)
	default:
		return fmt.Sprintf("persist %s: %s: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
