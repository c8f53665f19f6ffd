package artifact

import "errors"

var (
	// ErrNotFound means the referenced artifact or comment does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStorageUnavailable wraps any failure to read or write the store.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrInvalidAction is returned for a support action outside the closed set.
	ErrInvalidAction = errors.New("invalid support action")

	// ErrInvalidReaction is returned for a reaction key outside the closed set.
	ErrInvalidReaction = errors.New("invalid reaction")

	// ErrConflict means a guarded update lost a race with another writer.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrInvariant means a write would break a scoring invariant.
	ErrInvariant = errors.New("artifact invariant violated")

	// ErrInvalidInput is returned when a new artifact or comment fails validation.
	ErrInvalidInput = errors.New("invalid input")
)

// FieldError is a validation failure tied to a single input field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Unwrap lets callers match any FieldError with errors.Is(err, ErrInvalidInput).
func (e *FieldError) Unwrap() error {
	return ErrInvalidInput
}
