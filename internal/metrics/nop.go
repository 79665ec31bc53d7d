// Package metrics provides types.MetricsCollector implementations.
package metrics

import "github.com/arloliu/rollout/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// UpdateMetrics implementation

// RecordUpdate discards the update metric.
func (n *NopMetrics) RecordUpdate(_ /* success */ bool, _ /* changes */ int, _ /* duration */ float64) {
	// No-op
}

// SetConfigVersion discards the version gauge.
func (n *NopMetrics) SetConfigVersion(_ /* version */ uint64) {
	// No-op
}

// SetActiveFeatures discards the feature count gauge.
func (n *NopMetrics) SetActiveFeatures(_ /* count */ int) {
	// No-op
}

// DocumentMetrics implementation

// RecordValidationFailure discards the validation failure counter.
func (n *NopMetrics) RecordValidationFailure() {
	// No-op
}

// RecordBiasFallback discards the bias fallback counter.
func (n *NopMetrics) RecordBiasFallback(_ /* feature */, _ /* code */ string) {
	// No-op
}

// AssignmentMetrics implementation

// RecordAssignment discards the assignment counter.
func (n *NopMetrics) RecordAssignment(_ /* feature */, _ /* variation */ string) {
	// No-op
}

// RecordMemoLookup discards the memo lookup counter.
func (n *NopMetrics) RecordMemoLookup(_ /* hit */ bool) {
	// No-op
}
