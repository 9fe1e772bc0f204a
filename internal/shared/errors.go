package shared

import "errors"

var (
	// ErrNotFound indicates a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates missing or malformed required input.
	ErrValidation = errors.New("validation failed")
	// ErrLocked indicates a mutation attempt on a terminal or soft-deleted order.
	ErrLocked = errors.New("order is locked")
	// ErrAlreadySettled indicates a second settlement attempt on the same order.
	ErrAlreadySettled = errors.New("order already settled")
	// ErrSequenceExhausted indicates the document-number retry budget ran out.
	ErrSequenceExhausted = errors.New("document number allocation exhausted")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden indicates the acting user lacks the required role.
	ErrForbidden = errors.New("forbidden")
)
