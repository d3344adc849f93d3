package database

import (
	"errors"
	"regexp"
	"strings"
)

// ErrUniqueViolation is the Cause of a ConstraintError produced by a
// UNIQUE constraint failure. SwiftBase only ever needs to distinguish
// "this write collided with an existing row" (surfaced to callers as a
// conflict) from every other storage failure (surfaced as a generic
// storage error); foreign-key, not-null, and check-constraint failures
// reach callers as plain storage errors since nothing here branches on
// them.
var ErrUniqueViolation = errors.New("unique constraint violated")

type ConstraintError struct {
	Table   string
	Column  string
	Message string
	Cause   error
}

func (e *ConstraintError) Error() string {
	return e.Message
}

func (e *ConstraintError) Unwrap() error {
	return e.Cause
}

var uniquePattern = regexp.MustCompile(`UNIQUE constraint failed: ([^\s]+)`)

// ClassifyError recognizes a UNIQUE constraint violation in a raw
// driver error and turns it into a ConstraintError; any other error,
// including other constraint kinds, passes through unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	matches := uniquePattern.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return err
	}

	ce := &ConstraintError{
		Cause:   ErrUniqueViolation,
		Message: "A record with this value already exists",
	}
	parts := strings.Split(matches[1], ".")
	if len(parts) == 2 {
		ce.Table = parts[0]
		ce.Column = parts[1]
		ce.Message = "A record with this '" + parts[1] + "' already exists"
	}
	return ce
}

func IsUniqueError(err error) bool {
	var ce *ConstraintError
	return errors.As(err, &ce)
}
