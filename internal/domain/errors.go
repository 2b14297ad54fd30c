package domain

import "errors"

// Sentinel errors for the gateway. Callers wrap them with fmt.Errorf("...: %w")
// and check them with errors.Is.
var (
	// ErrAuthentication means a credential was missing, invalid, expired or
	// referenced an unknown user. The connection attempt is refused.
	ErrAuthentication = errors.New("authentication error")

	// ErrValidation means a client payload failed schema validation.
	ErrValidation = errors.New("validation error")

	// ErrPersistence means the message store could not durably save a message.
	ErrPersistence = errors.New("persistence error")

	// ErrSearch means the catalog search capability is unavailable.
	ErrSearch = errors.New("catalog search error")

	// ErrPolicy means the declared origin of a connection is not allowed.
	ErrPolicy = errors.New("origin not allowed")

	// ErrNotFound is returned by collaborators when a record does not exist.
	ErrNotFound = errors.New("requested resource not found")
)
