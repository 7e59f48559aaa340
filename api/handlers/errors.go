package handlers

import (
	"errors"
	"net/http"

	"github.com/linesmerrill/civic-report-api/databases"
	"github.com/linesmerrill/civic-report-api/storage"
)

var (
	// ErrMissingField is returned when a mandatory request field is absent
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidField is returned when a field holds a value outside its domain
	ErrInvalidField = errors.New("invalid field value")
	// ErrInvalidCredentials is returned for every failed login, whatever the cause
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// statusFromError maps an error to the HTTP status returned to the caller. Anything
// unclassified is a server error.
func statusFromError(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrMissingField),
		errors.Is(err, ErrInvalidField),
		errors.Is(err, storage.ErrInvalidImage),
		errors.Is(err, storage.ErrImageTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, databases.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, databases.ErrDuplicateKey):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
