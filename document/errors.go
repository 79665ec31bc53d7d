package document

import (
	"fmt"
	"strings"

	"github.com/arloliu/rollout/types"
)

// Issue is one structural problem found in a document.
type Issue struct {
	// Index is the position of the feature in the document, or -1 for
	// document-level problems.
	Index int `json:"index"`

	// Feature is the feature name, when known.
	Feature string `json:"feature,omitempty"`

	// Field is the offending field ("name", "test-variations", "labels", ...).
	Field string `json:"field,omitempty"`

	// Message describes the problem.
	Message string `json:"message"`
}

// String formats the issue for error messages.
func (i Issue) String() string {
	switch {
	case i.Index < 0:
		return i.Message
	case i.Feature != "":
		return fmt.Sprintf("features[%d] %q: %s: %s", i.Index, i.Feature, i.Field, i.Message)
	default:
		return fmt.Sprintf("features[%d]: %s: %s", i.Index, i.Field, i.Message)
	}
}

// ValidationError reports every structural problem found in a rejected document.
//
// It matches types.ErrValidation with errors.Is, and also unwraps to the
// decoder error when the input could not be decoded at all.
type ValidationError struct {
	Issues []Issue
	Cause  error
}

// Error returns all issues joined by "; ".
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}

	return fmt.Sprintf("%s: %s", types.ErrValidation, strings.Join(parts, "; "))
}

// Unwrap returns types.ErrValidation and the decoder cause, if any.
func (e *ValidationError) Unwrap() []error {
	if e.Cause != nil {
		return []error{types.ErrValidation, e.Cause}
	}

	return []error{types.ErrValidation}
}
