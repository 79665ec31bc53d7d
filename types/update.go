package types

import "strings"

// ChangeKind is a bit set describing how a feature differs between two versions.
type ChangeKind uint8

const (
	// ChangeAdded marks a feature present only in the new document.
	ChangeAdded ChangeKind = 1 << iota

	// ChangeRemoved marks a feature present only in the previous document.
	ChangeRemoved

	// ChangeEnabled marks a flip of the feature's own enabled switch.
	ChangeEnabled

	// ChangeBiases marks a change of the effective weights, which may move
	// bucket boundaries and re-bucket subjects.
	ChangeBiases

	// ChangeVariations marks a change of the ordered variation names.
	ChangeVariations

	// ChangeLabels marks a change of the labels.
	ChangeLabels
)

var changeNames = []struct {
	kind ChangeKind
	name string
}{
	{ChangeAdded, "added"},
	{ChangeRemoved, "removed"},
	{ChangeEnabled, "enabled"},
	{ChangeBiases, "biases"},
	{ChangeVariations, "variations"},
	{ChangeLabels, "labels"},
}

// Has reports whether all bits of other are set.
func (c ChangeKind) Has(other ChangeKind) bool {
	return c&other == other && other != 0
}

// String returns the change set as a "|"-joined list, or "none".
func (c ChangeKind) String() string {
	if c == 0 {
		return "none"
	}

	parts := make([]string, 0, len(changeNames))
	for _, cn := range changeNames {
		if c.Has(cn.kind) {
			parts = append(parts, cn.name)
		}
	}

	return strings.Join(parts, "|")
}

// FeatureChange reports how one feature changed across an update.
type FeatureChange struct {
	Feature string     `json:"feature"`
	Kind    ChangeKind `json:"kind"`
}

// UpdateResult reports the outcome of a configuration swap.
//
// The report is informational: it never gates the swap, which is atomic.
type UpdateResult struct {
	// PreviousVersion is the version replaced by this update (0 when none).
	PreviousVersion uint64 `json:"previousVersion"`

	// Version is the version now in effect.
	Version uint64 `json:"version"`

	// Changes lists changed features sorted by name. Unchanged features are omitted.
	Changes []FeatureChange `json:"changes"`

	// Warnings carries the non-fatal degradations of the new document.
	Warnings []Warning `json:"warnings,omitempty"`
}

// Changed reports whether any feature differs between the two versions.
func (r UpdateResult) Changed() bool {
	return len(r.Changes) > 0
}

// Change returns the change set recorded for the named feature.
func (r UpdateResult) Change(feature string) ChangeKind {
	for _, c := range r.Changes {
		if c.Feature == feature {
			return c.Kind
		}
	}

	return 0
}

// Filter returns the names of features whose change set includes kind.
func (r UpdateResult) Filter(kind ChangeKind) []string {
	var names []string
	for _, c := range r.Changes {
		if c.Kind.Has(kind) {
			names = append(names, c.Feature)
		}
	}

	return names
}
