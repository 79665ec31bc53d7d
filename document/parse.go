package document

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/rollout/internal/hash"
	"github.com/arloliu/rollout/internal/logging"
	"github.com/arloliu/rollout/internal/metrics"
	"github.com/arloliu/rollout/types"
)

// Option configures parsing.
type Option func(*parser)

// WithLogger sets the logger that receives bias fallback warnings.
func WithLogger(logger types.Logger) Option {
	return func(p *parser) {
		p.logger = logger
	}
}

// WithMetrics sets the collector that counts rejected documents and bias fallbacks.
func WithMetrics(m types.DocumentMetrics) Option {
	return func(p *parser) {
		p.metrics = m
	}
}

type parser struct {
	logger  types.Logger
	metrics types.DocumentMetrics
}

func newParser(opts []Option) *parser {
	p := &parser{
		logger:  logging.NewNop(),
		metrics: metrics.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.logger == nil {
		p.logger = logging.NewNop()
	}
	if p.metrics == nil {
		p.metrics = metrics.NewNop()
	}

	return p
}

// rawDocument mirrors the wire format. Features is a pointer so that a
// missing key can be told apart from an empty list.
type rawDocument struct {
	Features *[]rawFeature `yaml:"features"`
}

// rawFeature keeps biases as a node so that a non-integer bias degrades to
// a fallback instead of failing the whole decode.
type rawFeature struct {
	Name       string    `yaml:"name"`
	Enabled    *bool     `yaml:"enabled"`
	Variations []string  `yaml:"test-variations"`
	Biases     yaml.Node `yaml:"test-biases"`
	Labels     []string  `yaml:"labels"`
}

// Parse decodes and validates a configuration document.
//
// A feature without an "enabled" key is disabled.
//
// Parameters:
//   - raw: Document bytes (YAML or JSON)
//   - opts: Optional logger and metrics
//
// Returns:
//   - *types.Document: Immutable parsed document with Kind and Weights derived
//   - error: *ValidationError when the document is rejected
//
// Example:
//
//	doc, err := document.Parse(raw, document.WithLogger(logger))
//	if err != nil {
//	    return err // previous configuration stays active
//	}
//	for _, w := range doc.Warnings {
//	    // feature fell back to uniform weighting
//	}
func Parse(raw []byte, opts ...Option) (*types.Document, error) {
	p := newParser(opts)

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, p.reject(&ValidationError{Issues: []Issue{{Index: -1, Message: "empty document"}}})
	}

	var rd rawDocument
	if err := yaml.Unmarshal(raw, &rd); err != nil {
		return nil, p.reject(&ValidationError{
			Issues: []Issue{{Index: -1, Message: fmt.Sprintf("decode: %v", err)}},
			Cause:  err,
		})
	}

	if rd.Features == nil {
		return nil, p.reject(&ValidationError{Issues: []Issue{{Index: -1, Message: `missing "features" key`}}})
	}

	features := make([]types.Feature, len(*rd.Features))
	biasErrs := make([]string, len(*rd.Features))
	for i, rf := range *rd.Features {
		features[i] = types.Feature{
			Name:       rf.Name,
			Enabled:    rf.Enabled != nil && *rf.Enabled,
			Variations: rf.Variations,
			Labels:     rf.Labels,
		}

		if rf.Biases.Kind != 0 {
			biases, ok := decodeBiases(&rf.Biases)
			if !ok {
				biasErrs[i] = "biases must be a list of integers"
			} else {
				features[i].Biases = biases
			}
		}
	}

	return p.build(features, biasErrs)
}

// decodeBiases accepts only a sequence of integer scalars. The YAML decoder
// would otherwise truncate floats such as 80.9 into ints.
func decodeBiases(node *yaml.Node) ([]int, bool) {
	if node.Kind != yaml.SequenceNode {
		return nil, false
	}
	for _, item := range node.Content {
		if item.Kind != yaml.ScalarNode || item.ShortTag() != "!!int" {
			return nil, false
		}
	}

	var biases []int
	if err := node.Decode(&biases); err != nil {
		return nil, false
	}

	return biases, true
}

// FromFeatures validates programmatically built features into a document.
//
// The same rules as Parse apply. The input slice is deep-copied, so the
// caller may reuse it.
func FromFeatures(features []types.Feature, opts ...Option) (*types.Document, error) {
	p := newParser(opts)

	copied := make([]types.Feature, len(features))
	for i := range features {
		copied[i] = features[i].Clone()
	}

	return p.build(copied, make([]string, len(copied)))
}

func (p *parser) build(features []types.Feature, biasErrs []string) (*types.Document, error) {
	var issues []Issue
	seen := make(map[string]int, len(features))

	for i := range features {
		f := &features[i]
		f.Name = strings.TrimSpace(f.Name)

		if f.Name == "" {
			issues = append(issues, Issue{Index: i, Field: "name", Message: "feature name is empty"})
		} else if first, dup := seen[f.Name]; dup {
			issues = append(issues, Issue{
				Index:   i,
				Feature: f.Name,
				Field:   "name",
				Message: fmt.Sprintf("duplicate feature name (first defined at features[%d])", first),
			})
		} else {
			seen[f.Name] = i
		}

		issues = append(issues, validateVariations(i, f)...)

		if len(f.Labels) > 0 && len(f.Labels) != len(f.Variations) {
			issues = append(issues, Issue{
				Index:   i,
				Feature: f.Name,
				Field:   "labels",
				Message: fmt.Sprintf("%d labels for %d variations", len(f.Labels), len(f.Variations)),
			})
		}
	}

	if len(issues) > 0 {
		return nil, p.reject(&ValidationError{Issues: issues})
	}

	doc := &types.Document{Features: features}
	for i := range doc.Features {
		f := &doc.Features[i]
		f.Kind = types.Classify(f.Variations)
		if w, ok := p.resolveWeights(f, biasErrs[i]); ok {
			doc.Warnings = append(doc.Warnings, w)
		}
	}

	return doc, nil
}

func validateVariations(idx int, f *types.Feature) []Issue {
	var issues []Issue
	seen := make(map[string]struct{}, len(f.Variations))

	for j, v := range f.Variations {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			issues = append(issues, Issue{
				Index:   idx,
				Feature: f.Name,
				Field:   "test-variations",
				Message: fmt.Sprintf("variation %d has an empty name", j),
			})

			continue
		}
		if _, dup := seen[key]; dup {
			issues = append(issues, Issue{
				Index:   idx,
				Feature: f.Name,
				Field:   "test-variations",
				Message: fmt.Sprintf("duplicate variation name %q", v),
			})

			continue
		}
		seen[key] = struct{}{}
	}

	return issues
}

// resolveWeights derives the effective weights of f and reports the warning,
// if any, produced by the derivation.
func (p *parser) resolveWeights(f *types.Feature, biasErr string) (types.Warning, bool) {
	n := len(f.Variations)
	f.BiasFallback = false

	if n == 0 {
		f.Weights = nil
		if len(f.Biases) > 0 || biasErr != "" {
			return p.warn(types.Warning{
				Code:    types.WarnBiasesIgnored,
				Feature: f.Name,
				Reason:  "feature has no variations",
			}), true
		}

		return types.Warning{}, false
	}

	reason := biasErr
	if reason == "" && len(f.Biases) > 0 {
		reason = checkBiases(f.Biases, n)
	}

	if reason != "" {
		f.Weights = hash.Uniform(n)
		f.BiasFallback = true

		return p.warn(types.Warning{Code: types.WarnBiasFallback, Feature: f.Name, Reason: reason}), true
	}

	if len(f.Biases) == 0 {
		f.Weights = hash.Uniform(n)
	} else {
		f.Weights = slices.Clone(f.Biases)
	}

	return types.Warning{}, false
}

// checkBiases returns why biases cannot be used for n variations, or "".
func checkBiases(biases []int, n int) string {
	if len(biases) != n {
		return fmt.Sprintf("%d biases for %d variations", len(biases), n)
	}

	sum := 0
	for i, b := range biases {
		if b < 0 {
			return fmt.Sprintf("bias %d is negative (%d)", i, b)
		}
		if b > hash.Scale {
			return fmt.Sprintf("bias %d exceeds %d (%d)", i, hash.Scale, b)
		}
		sum += b
	}

	if sum != hash.Scale {
		return fmt.Sprintf("biases sum to %d, want %d", sum, hash.Scale)
	}

	return ""
}

func (p *parser) warn(w types.Warning) types.Warning {
	p.logger.Warn("feature biases rejected",
		"feature", w.Feature,
		"code", string(w.Code),
		"reason", w.Reason,
	)
	p.metrics.RecordBiasFallback(w.Feature, string(w.Code))

	return w
}

func (p *parser) reject(err *ValidationError) error {
	p.logger.Warn("configuration document rejected", "issues", len(err.Issues), "error", err.Error())
	p.metrics.RecordValidationFailure()

	return err
}

// Marshal encodes a document back to YAML.
//
// Only configured fields are written; derived fields such as Kind and
// Weights are recomputed when the output is parsed again.
func Marshal(doc *types.Document) ([]byte, error) {
	if doc == nil {
		doc = &types.Document{Features: []types.Feature{}}
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	return out, nil
}
