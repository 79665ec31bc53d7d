package types

import "fmt"

// WarningCode identifies the kind of non-fatal degradation applied while parsing.
type WarningCode string

const (
	// WarnBiasFallback indicates configured biases were invalid and the
	// feature fell back to uniform weighting.
	WarnBiasFallback WarningCode = "bias_fallback"

	// WarnBiasesIgnored indicates biases were configured on a feature
	// without variations and were ignored.
	WarnBiasesIgnored WarningCode = "biases_ignored"
)

// Warning describes a non-fatal problem found in a single feature.
//
// Warning implements error so it can be logged and inspected with errors.Is;
// every warning matches ErrBiasFallback.
type Warning struct {
	Code    WarningCode `json:"code"`
	Feature string      `json:"feature"`
	Reason  string      `json:"reason"`
}

// Error returns a human-readable description of the warning.
func (w Warning) Error() string {
	return fmt.Sprintf("feature %q: %s: %s", w.Feature, w.Code, w.Reason)
}

// Unwrap returns ErrBiasFallback.
func (w Warning) Unwrap() error {
	return ErrBiasFallback
}
