package rollout

import "github.com/arloliu/rollout/types"

// Sentinel errors returned by the Manager.
//
// They are aliases of the types package sentinels so that errors.Is works
// regardless of which package the caller imports.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = types.ErrInvalidConfig

	// ErrAlreadyLoaded is returned when Load is called after a document is active.
	ErrAlreadyLoaded = types.ErrAlreadyLoaded

	// ErrNoProvider is returned by Refresh and Watch without a configuration provider.
	ErrNoProvider = types.ErrNoProvider

	// ErrNoSubjectProvider is returned by the current-subject helpers without a subject provider.
	ErrNoSubjectProvider = types.ErrNoSubjectProvider

	// ErrWatchUnsupported is returned by Watch when the provider cannot watch.
	ErrWatchUnsupported = types.ErrWatchUnsupported

	// ErrValidation is returned when a configuration document is rejected.
	ErrValidation = types.ErrValidation

	// ErrBiasFallback is matched by warnings of features that fell back to uniform weighting.
	ErrBiasFallback = types.ErrBiasFallback

	// ErrNotConfigured is returned by Evaluate before the first successful load.
	ErrNotConfigured = types.ErrNotConfigured

	// ErrUnknownFeature is returned by Evaluate for features absent from the active document.
	ErrUnknownFeature = types.ErrUnknownFeature

	// ErrEmptyPayload is returned when a provider yields no configuration bytes.
	ErrEmptyPayload = types.ErrEmptyPayload

	// ErrProviderUnavailable marks transient provider transport failures.
	ErrProviderUnavailable = types.ErrProviderUnavailable

	// ErrEmptySubject is returned when the subject provider yields an empty identifier.
	ErrEmptySubject = types.ErrEmptySubject
)
