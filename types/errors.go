package types

import "errors"

// Sentinel errors for the rollout library.
//
// These errors provide type-safe error checking using errors.Is() and errors.As().
// All components should use these sentinel errors for known error conditions
// and wrap external errors with context using fmt.Errorf("%s: %w", msg, err).
//
// Error Naming Convention:
//   - Use descriptive names with Err prefix
//   - Group by component (Manager, Document, Registry, Sources)
//   - Use consistent messages across similar error types

// Manager errors - Public API errors returned by Manager component.
var (
	// ErrInvalidConfig is returned when the library configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrAlreadyLoaded is returned when Load is called on an active registry.
	ErrAlreadyLoaded = errors.New("configuration already loaded")

	// ErrNoProvider is returned when Refresh or Watch is called without a configuration provider.
	ErrNoProvider = errors.New("configuration provider is required")

	// ErrNoSubjectProvider is returned when a current-subject helper is used without a subject provider.
	ErrNoSubjectProvider = errors.New("subject provider is required")

	// ErrWatchUnsupported is returned when the configured provider cannot watch for changes.
	ErrWatchUnsupported = errors.New("configuration provider does not support watching")
)

// Document errors - Configuration document parsing errors.
var (
	// ErrValidation is returned when a configuration document is malformed.
	// The whole document is rejected; nothing is applied.
	ErrValidation = errors.New("configuration document validation failed")

	// ErrBiasFallback marks a non-fatal warning: a feature's biases were
	// invalid and uniform weighting applies instead.
	ErrBiasFallback = errors.New("feature biases invalid, using uniform weighting")
)

// Registry errors - Lookup errors surfaced by strict evaluation.
var (
	// ErrNotConfigured is returned when a lookup happens before any successful load.
	ErrNotConfigured = errors.New("feature registry not configured")

	// ErrUnknownFeature is returned when a feature is absent from the active configuration.
	ErrUnknownFeature = errors.New("unknown feature")
)

// Source errors - Configuration and identity provider errors.
var (
	// ErrEmptyPayload is returned when a provider yields no configuration bytes.
	ErrEmptyPayload = errors.New("empty configuration payload")

	// ErrProviderUnavailable marks a transient transport failure of a
	// configuration provider. Retrying later may succeed.
	ErrProviderUnavailable = errors.New("configuration provider unavailable")

	// ErrEmptySubject is returned when a subject provider yields an empty identifier.
	ErrEmptySubject = errors.New("empty subject identifier")
)
