package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycle is matched by every CycleError.
var ErrCycle = errors.New("dependency cycle detected")

// CycleError reports a back edge found during topological sorting.
type CycleError struct {
	From, To string
	Path     []string // closed cycle, first element repeated at the end
}

func (e *CycleError) Error() string {
	if len(e.Path) > 0 {
		return fmt.Sprintf("%s: %s", ErrCycle, strings.Join(e.Path, " -> "))
	}
	return fmt.Sprintf("%s: %s -> %s", ErrCycle, e.From, e.To)
}

func (e *CycleError) Is(target error) bool {
	return target == ErrCycle
}

// ValidationKind names a problem found in strict mode.
type ValidationKind string

const (
	DanglingReference ValidationKind = "dangling reference"
	DuplicateID       ValidationKind = "duplicate id"
	NegativeDuration  ValidationKind = "negative duration"
	EmptyID           ValidationKind = "empty id"
)

// ValidationError is returned by Build in strict mode.
type ValidationError struct {
	Kind ValidationKind
	ID   string // offending activity
	Ref  string // missing predecessor, for dangling references
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case DanglingReference:
		return fmt.Sprintf("activity %q: %s to %q", e.ID, e.Kind, e.Ref)
	case EmptyID:
		return string(e.Kind)
	default:
		return fmt.Sprintf("activity %q: %s", e.ID, e.Kind)
	}
}
