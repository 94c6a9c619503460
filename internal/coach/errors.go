package coach

import "errors"

// Validation errors.
var (
	ErrInvalidConfiguration = errors.New("invalid session configuration")
	ErrInvalidScore         = errors.New("score must be between 0 and 100")
)

// Session lifecycle errors.
var (
	ErrUnknownSession = errors.New("unknown session")
)
