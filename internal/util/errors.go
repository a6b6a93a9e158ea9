package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrUnsupported indicates a file format or operation is not supported
	ErrUnsupported = errors.New("unsupported")

	// ErrCorrupt indicates a file is corrupt or unreadable
	ErrCorrupt = errors.New("corrupt file")

	// ErrNotFound indicates a required resource was not found
	ErrNotFound = errors.New("not found")

	// ErrNotPermitted indicates an operation is blocked by editability rules
	ErrNotPermitted = errors.New("not permitted")

	// ErrInvalidCriteria indicates malformed smart playlist criteria
	ErrInvalidCriteria = errors.New("invalid criteria")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")
)
