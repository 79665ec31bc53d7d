package types

import (
	"slices"
	"strings"
)

// NoVariation is the variation index reported when a subject receives no assignment.
const NoVariation = -1

// Variation names that turn a two-variation test into a binary feature test.
// Matching is case-insensitive.
const (
	VariationEnabled  = "enabled"
	VariationDisabled = "disabled"
)

// Kind classifies a feature by the shape of its variations.
//
// The classification is an interpretation layer only: every kind is served by
// the same weighted-bucket assignment.
type Kind int

const (
	// KindFlag is a plain on/off flag without variations.
	KindFlag Kind = iota

	// KindFeatureTest is a binary test whose two variations are named
	// "enabled" and "disabled". IsEnabled reflects bucket membership.
	KindFeatureTest

	// KindABTest is a test with exactly two arbitrarily named variations.
	KindABTest

	// KindMVT is a multivariate test with three or more variations.
	KindMVT
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindFlag:
		return "flag"
	case KindFeatureTest:
		return "feature-test"
	case KindABTest:
		return "ab-test"
	case KindMVT:
		return "mvt"
	default:
		return "unknown"
	}
}

// IsTest reports whether the kind assigns subjects to variations.
func (k Kind) IsTest() bool {
	return k != KindFlag
}

// Classify derives the kind of a feature from its ordered variation names.
//
// Rules:
//   - 0 variations: KindFlag
//   - 2 variations named "enabled"/"disabled" (any order, any case): KindFeatureTest
//   - 2 variations otherwise: KindABTest
//   - 3+ variations: KindMVT
//
// A single variation is classified as KindABTest with one bucket; it always
// receives every subject.
//
// Parameters:
//   - variations: Ordered variation names
//
// Returns:
//   - Kind: The derived classification
func Classify(variations []string) Kind {
	switch n := len(variations); {
	case n == 0:
		return KindFlag
	case n == 2 && isBinaryPair(variations[0], variations[1]):
		return KindFeatureTest
	case n <= 2:
		return KindABTest
	default:
		return KindMVT
	}
}

func isBinaryPair(a, b string) bool {
	return (strings.EqualFold(a, VariationEnabled) && strings.EqualFold(b, VariationDisabled)) ||
		(strings.EqualFold(a, VariationDisabled) && strings.EqualFold(b, VariationEnabled))
}

// Feature is a named togglable capability with optional test variations.
//
// The configured fields mirror the configuration document. Kind, Weights and
// BiasFallback are derived once at parse time and never change afterwards.
type Feature struct {
	// Name uniquely identifies the feature within a document.
	Name string `yaml:"name" json:"name"`

	// Enabled is the feature's own switch. A disabled feature never assigns.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Variations is the ordered list of variation names. Order is part of
	// the contract: biases and labels align with it by position.
	Variations []string `yaml:"test-variations,omitempty" json:"test-variations,omitempty"`

	// Biases are the configured percentage weights, parallel to Variations.
	Biases []int `yaml:"test-biases,omitempty" json:"test-biases,omitempty"`

	// Labels are optional display strings, parallel to Variations.
	Labels []string `yaml:"labels,omitempty" json:"labels,omitempty"`

	// Kind is the derived classification.
	Kind Kind `yaml:"-" json:"-"`

	// Weights are the effective weights used for bucketing: Biases when
	// valid, otherwise a uniform split summing to 100.
	Weights []int `yaml:"-" json:"-"`

	// BiasFallback is true when Biases were supplied but rejected.
	BiasFallback bool `yaml:"-" json:"-"`
}

// VariationIndex returns the position of the named variation (case-insensitive).
//
// Returns:
//   - int: Variation index, or NoVariation if the name is unknown
func (f *Feature) VariationIndex(name string) int {
	for i, v := range f.Variations {
		if strings.EqualFold(v, name) {
			return i
		}
	}

	return NoVariation
}

// VariationName returns the variation name at idx.
func (f *Feature) VariationName(idx int) (string, bool) {
	if idx < 0 || idx >= len(f.Variations) {
		return "", false
	}

	return f.Variations[idx], true
}

// Label returns the label at idx, if the feature carries labels.
func (f *Feature) Label(idx int) (string, bool) {
	if idx < 0 || idx >= len(f.Labels) {
		return "", false
	}

	return f.Labels[idx], true
}

// EnabledIndex returns the index of the "enabled" side of a binary feature test,
// or NoVariation for every other kind.
func (f *Feature) EnabledIndex() int {
	if f.Kind != KindFeatureTest {
		return NoVariation
	}

	return f.VariationIndex(VariationEnabled)
}

// Clone returns a deep copy of the feature.
func (f *Feature) Clone() Feature {
	c := *f
	c.Variations = slices.Clone(f.Variations)
	c.Biases = slices.Clone(f.Biases)
	c.Labels = slices.Clone(f.Labels)
	c.Weights = slices.Clone(f.Weights)

	return c
}

// Document is an ordered, immutable set of features loaded atomically.
//
// Documents are produced by the document package and never mutated after
// parsing; updates replace the whole document.
type Document struct {
	// Features in configuration order.
	Features []Feature `yaml:"features" json:"features"`

	// Warnings collected while parsing (non-fatal degradations).
	Warnings []Warning `yaml:"-" json:"-"`
}

// Named returns the feature with the given name.
func (d *Document) Named(name string) (*Feature, bool) {
	if d == nil {
		return nil, false
	}

	for i := range d.Features {
		if d.Features[i].Name == name {
			return &d.Features[i], true
		}
	}

	return nil, false
}

// Names returns the feature names in configuration order.
func (d *Document) Names() []string {
	if d == nil {
		return nil
	}

	names := make([]string, len(d.Features))
	for i := range d.Features {
		names[i] = d.Features[i].Name
	}

	return names
}

// Assignment is the derived placement of one subject for one feature.
//
// It is recomputed on demand and only memoized per configuration version.
type Assignment struct {
	SubjectID      string `json:"subjectId"`
	Feature        string `json:"feature"`
	VariationIndex int    `json:"variationIndex"`
	Version        uint64 `json:"version"`
}

// HasVariation reports whether the subject landed in a variation.
func (a Assignment) HasVariation() bool {
	return a.VariationIndex != NoVariation
}

// VariationRef identifies the variation a subject landed in.
type VariationRef struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Label string `json:"label,omitempty"`
}

// Decision is the fully evaluated outcome of a feature for one subject.
type Decision struct {
	Feature   string        `json:"feature"`
	SubjectID string        `json:"subjectId"`
	Kind      Kind          `json:"kind"`
	Enabled   bool          `json:"enabled"`
	Variation *VariationRef `json:"variation,omitempty"`
	Version   uint64        `json:"version"`
}
