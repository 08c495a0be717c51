package communication

import (
	"errors"
	"net/http"
)

var (
	// ErrUnauthenticated is returned when no credential was presented
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidToken is returned when the credential is garbled, badly signed or expired
	ErrInvalidToken = errors.New("invalid token")

	// ErrForbidden is returned when the identity is valid but the policy denies the action
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when a referenced entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrAlreadyMarked is returned when attendance for the current day already exists
	ErrAlreadyMarked = errors.New("attendance already marked today")

	// ErrValidation is returned when a required field is missing or a value is out of range
	ErrValidation = errors.New("validation failure")

	// ErrConflict is returned when a unique value is already taken
	ErrConflict = errors.New("conflict")
)

var statusByError = []struct {
	err    error
	status int
}{
	{ErrUnauthenticated, http.StatusUnauthorized},
	{ErrInvalidToken, http.StatusUnauthorized},
	{ErrForbidden, http.StatusForbidden},
	{ErrNotFound, http.StatusNotFound},
	{ErrAlreadyMarked, http.StatusConflict},
	{ErrValidation, http.StatusBadRequest},
	{ErrConflict, http.StatusConflict},
}

// StatusFor returns the HTTP status of a known error or fallback
func StatusFor(err error, fallback int) int {
	for _, candidate := range statusByError {
		if errors.Is(err, candidate.err) {
			return candidate.status
		}
	}

	return fallback
}
