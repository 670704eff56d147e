package hierarchy

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIncompleteOrder is returned when a closure is requested with an order that
// does not place every node after all of its children
var ErrIncompleteOrder = errors.New("order is not a complete reverse topological order")

// DuplicateIdentifierError reports an identifier declared more than once
type DuplicateIdentifierError struct {
	Identifier string
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("duplicate identifier %q", e.Identifier)
}

// UnknownParentError reports a record whose parents were never declared
type UnknownParentError struct {
	Identifier     string
	MissingParents []string
}

func (e *UnknownParentError) Error() string {
	return fmt.Sprintf("%q conforms to undeclared identifier(s) %s",
		e.Identifier, quoteAll(e.MissingParents))
}

// CycleError reports a cycle in the conforms-to relation. Path is in
// conforms-to order and starts and ends with the same identifier.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("conformance cycle: %s", strings.Join(e.Path, " -> "))
}

// EmptyIdentifierError reports a record without an identifier
type EmptyIdentifierError struct {
	Index int
}

func (e *EmptyIdentifierError) Error() string {
	return fmt.Sprintf("record %d has an empty identifier", e.Index)
}

// MaterializationError reports a forest that disagrees with the graph it was built from
type MaterializationError struct {
	Identifier string
	Reason     string
}

func (e *MaterializationError) Error() string {
	if e.Identifier == "" {
		return fmt.Sprintf("materialization failed: %s", e.Reason)
	}
	return fmt.Sprintf("materialization failed at %q: %s", e.Identifier, e.Reason)
}

func quoteAll(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = fmt.Sprintf("%q", id)
	}
	return strings.Join(quoted, ", ")
}
