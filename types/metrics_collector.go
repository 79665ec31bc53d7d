package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// Methods are called from lookup and update paths and must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	UpdateMetrics
	DocumentMetrics
	AssignmentMetrics
}

// UpdateMetrics defines metrics for configuration swaps.
type UpdateMetrics interface {
	// RecordUpdate records a configuration update attempt.
	//
	// Parameters:
	//   - success: true if the new document was applied
	//   - changes: Number of changed features (0 on failure)
	//   - duration: Time taken in seconds
	RecordUpdate(success bool, changes int, duration float64)

	// SetConfigVersion sets the active configuration version (gauge metric).
	SetConfigVersion(version uint64)

	// SetActiveFeatures sets the number of features in the active document (gauge metric).
	SetActiveFeatures(count int)
}

// DocumentMetrics defines metrics for configuration parsing.
type DocumentMetrics interface {
	// RecordValidationFailure records a document rejected as malformed.
	RecordValidationFailure()

	// RecordBiasFallback records a feature that fell back to uniform weighting.
	//
	// Parameters:
	//   - feature: Feature name
	//   - code: Warning code ("bias_fallback", "biases_ignored")
	RecordBiasFallback(feature string, code string)
}

// AssignmentMetrics defines metrics for subject bucketing.
type AssignmentMetrics interface {
	// RecordAssignment records an assignment decision, memoized or not.
	//
	// Parameters:
	//   - feature: Feature name
	//   - variation: Variation name ("" for no assignment)
	RecordAssignment(feature string, variation string)

	// RecordMemoLookup records a memoization lookup.
	RecordMemoLookup(hit bool)
}
