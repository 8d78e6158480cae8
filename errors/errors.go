package errors

import "errors"

// Sentinel errors for common error conditions
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that input validation failed
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyQuery indicates that a query contained no text to answer
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")
)

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
