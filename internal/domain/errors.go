package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRange marks configuration errors such as an upper bound
	// below the lower bound. Never corrected silently.
	ErrInvalidRange = errors.New("invalid range")

	// ErrStructural marks violations of the vertex and edge invariants.
	// It signals a defect upstream and aborts the run.
	ErrStructural = errors.New("structural inconsistency")
)

// RangeError describes a rejected range or parameter.
type RangeError struct {
	Field string
	Lower string
	Upper string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid %s range: upper %s is below lower %s", e.Field, e.Upper, e.Lower)
}

func (e *RangeError) Unwrap() error { return ErrInvalidRange }

// StructuralError describes a broken invariant of the catalog, the vertex
// set or the wave graph.
type StructuralError struct {
	Edge   *Edge
	Key    *VertexKey
	Reason string
}

func (e *StructuralError) Error() string {
	switch {
	case e.Edge != nil:
		return fmt.Sprintf("structural inconsistency: edge %s -> %s: %s", e.Edge.From, e.Edge.To, e.Reason)
	case e.Key != nil:
		return fmt.Sprintf("structural inconsistency: vertex %s: %s", *e.Key, e.Reason)
	default:
		return "structural inconsistency: " + e.Reason
	}
}

func (e *StructuralError) Unwrap() error { return ErrStructural }
