package strategy

import (
	"github.com/arloliu/rollout/types"
)

// Override pins listed subjects to named variations and delegates every other
// subject to a base strategy.
//
// Typical use is forcing QA devices into a variation without touching the
// weights. A pin never overrides a disabled feature: disabled features still
// fail closed.
type Override struct {
	base types.AssignmentStrategy
	pins map[string]map[string]string // feature -> subject -> variation name
}

var _ types.AssignmentStrategy = (*Override)(nil)

// NewOverride creates an override strategy.
//
// Parameters:
//   - base: Strategy used for subjects without a pin (NewWeighted() if nil)
//   - pins: feature name -> subject ID -> variation name
//
// Returns:
//   - *Override: Initialized strategy
//
// Example:
//
//	s := strategy.NewOverride(strategy.NewWeighted(), map[string]map[string]string{
//	    "checkout": {"qa-device-1": "B"},
//	})
func NewOverride(base types.AssignmentStrategy, pins map[string]map[string]string) *Override {
	if base == nil {
		base = NewWeighted()
	}

	copied := make(map[string]map[string]string, len(pins))
	for feature, subjects := range pins {
		inner := make(map[string]string, len(subjects))
		for subject, variation := range subjects {
			inner[subject] = variation
		}
		copied[feature] = inner
	}

	return &Override{base: base, pins: copied}
}

// Assign returns the pinned variation when one exists and names a variation
// of the feature, otherwise the base strategy's decision.
func (o *Override) Assign(subjectID string, feature *types.Feature) int {
	if feature == nil || !feature.Enabled {
		return types.NoVariation
	}

	if subjects, ok := o.pins[feature.Name]; ok {
		if name, ok := subjects[subjectID]; ok {
			if idx := feature.VariationIndex(name); idx != types.NoVariation {
				return idx
			}
		}
	}

	return o.base.Assign(subjectID, feature)
}
