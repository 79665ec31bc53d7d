package types

// AssignmentStrategy places a subject into one of a feature's variations.
//
// Strategy implementations should:
//   - Be deterministic (same subject, feature name and weights → same index)
//   - Fail closed for disabled features (return NoVariation)
//   - Return NoVariation for features without variations
//   - Be stateless and safe for concurrent use (called on the lookup path)
type AssignmentStrategy interface {
	// Assign returns the variation index for the subject.
	//
	// Parameters:
	//   - subjectID: Stable subject identifier
	//   - feature: Parsed feature definition (Weights populated)
	//
	// Returns:
	//   - int: Variation index, or NoVariation
	Assign(subjectID string, feature *Feature) int
}
