package engine

import (
	"errors"
	"fmt"
)

var ErrAlreadyCompleted = errors.New("habit already completed this period")

// GateError indicates a feature is locked behind a required level.
// This is returned by gate checks and should be shown to the user.
type GateError struct {
	Feature       string
	RequiredLevel int
}

func (e GateError) Error() string {
	if e.RequiredLevel <= 0 {
		return fmt.Sprintf("feature '%s' is locked", e.Feature)
	}
	return fmt.Sprintf("feature '%s' unlocks at level %d", e.Feature, e.RequiredLevel)
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

type InsufficientPointsError struct {
	Need int
	Have int
}

func (e InsufficientPointsError) Error() string {
	return fmt.Sprintf("not enough points: need %d, have %d", e.Need, e.Have)
}

// CapacityError is returned when creating a habit would exceed the active limit.
type CapacityError struct {
	Limit int
}

func (e CapacityError) Error() string {
	return fmt.Sprintf("active habit limit reached (%d)", e.Limit)
}

var errEmptyName = errors.New("name is required")
