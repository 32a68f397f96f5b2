package policy

import (
	"errors"
	"fmt"
)

// Parse failures are data errors: the loader must surface them and refuse
// to authorize the subject, never silently downgrade them to deny-all.
var (
	// ErrMalformedField indicates a field that does not match the grammar.
	ErrMalformedField = errors.New("policy: malformed permission field")
	// ErrInvalidScopeForAction indicates a scope form the enclosing action
	// cannot carry, e.g. READ(true) or CREATE(5).
	ErrInvalidScopeForAction = errors.New("policy: scope invalid for action")
	// ErrScopeCategoryMismatch indicates a legacy bracketed scope naming a
	// category other than the one the field belongs to.
	ErrScopeCategoryMismatch = errors.New("policy: scope category mismatch")
	// ErrUnknownCategory indicates an authorization query for a category
	// the Set was not built with. This is a caller bug, not a deny.
	ErrUnknownCategory = errors.New("policy: unknown category")
)

// FieldError reports where inside a permission field parsing failed.
type FieldError struct {
	Category Category
	Input    string
	Fragment string
	Pos      int
	err      error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: category %s, fragment %q at offset %d", e.err, e.Category, e.Fragment, e.Pos)
}

func (e *FieldError) Unwrap() error { return e.err }

func fieldError(category Category, input, fragment string, pos int, err error) *FieldError {
	return &FieldError{Category: category, Input: input, Fragment: fragment, Pos: pos, err: err}
}
