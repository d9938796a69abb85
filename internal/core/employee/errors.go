package employee

import "errors"

var (
	ErrInvalidID             = errors.New("employee: invalid id")
	ErrValidation            = errors.New("employee: validation failed")
	ErrInvalidKind           = errors.New("employee: invalid kind")
	ErrInvalidPageSize       = errors.New("employee: invalid page size")
	ErrInvalidPageToken      = errors.New("employee: invalid page token")
	ErrEmployeeNotFound      = errors.New("employee: not found")
	ErrEmployeeAlreadyExists = errors.New("employee: id already exists")
	ErrNoProjectRole         = errors.New("employee: kind has no project association")
	ErrInvalidState          = errors.New("employee: stored record violates an invariant")
)
