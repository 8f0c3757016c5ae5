package settings

import "errors"

// Sentinel errors for settings operations.
var (
	// ErrProfileNotFound indicates no profile has the requested name.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrNoActiveProfile indicates no profile has been selected.
	ErrNoActiveProfile = errors.New("no active profile")

	// ErrUnsupportedFormat indicates a settings file extension with no codec.
	ErrUnsupportedFormat = errors.New("unsupported settings format")

	// ErrInvalidSettings indicates settings that fail Validate.
	ErrInvalidSettings = errors.New("invalid settings")
)
