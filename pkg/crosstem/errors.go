package crosstem

import "errors"

// Sentinel errors shared by every component that loads language data.
var (
	// ErrLanguageNotSupported is returned when a language code is not in the
	// supported set. It is raised at construction time, before any data is read.
	ErrLanguageNotSupported = errors.New("language not supported")

	// ErrDataNotFound is returned when the backing data for a supported
	// language cannot be located or parsed.
	ErrDataNotFound = errors.New("language data not found")

	// ErrInvalidConfig is returned by LoadConfig when a value is out of range.
	ErrInvalidConfig = errors.New("invalid configuration")
)
