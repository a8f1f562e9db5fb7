package schema

import "errors"

var (
	// ErrInvalidRequest indicates a malformed request payload.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrTabNotFound indicates a requested tab could not be found.
	ErrTabNotFound = errors.New("tab not found")
	// ErrRealmNotFound indicates a requested realm could not be found.
	ErrRealmNotFound = errors.New("realm not found")
	// ErrDockNotFound indicates a requested dock could not be found.
	ErrDockNotFound = errors.New("dock not found")
	// ErrLastRealm indicates a delete would leave zero realms.
	ErrLastRealm = errors.New("cannot delete the last realm")
	// ErrInvalidName indicates an empty or unusable name.
	ErrInvalidName = errors.New("invalid name")
	// ErrEmptyInput indicates navigation input was empty.
	ErrEmptyInput = errors.New("empty input")
	// ErrEngineUnavailable indicates no rendering engine is configured.
	ErrEngineUnavailable = errors.New("rendering engine not configured")
	// ErrServiceClosed indicates the service is shutting down.
	ErrServiceClosed = errors.New("service closed")
	// ErrInvalidSearchTemplate indicates the search template lacks {query}.
	ErrInvalidSearchTemplate = errors.New("search template must contain {query}")
)
