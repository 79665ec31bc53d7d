package document

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/rollout/types"
)

type recordingLogger struct {
	warnMessages []string
}

func (l *recordingLogger) Debug(string, ...any) {}

func (l *recordingLogger) Info(string, ...any) {}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.warnMessages = append(l.warnMessages, msg)
}

func (l *recordingLogger) Error(string, ...any) {}

func (l *recordingLogger) Fatal(string, ...any) {}

type recordingMetrics struct {
	validationFailures int
	fallbacks          map[string]string
}

func (m *recordingMetrics) RecordValidationFailure() {
	m.validationFailures++
}

func (m *recordingMetrics) RecordBiasFallback(feature string, code string) {
	if m.fallbacks == nil {
		m.fallbacks = make(map[string]string)
	}
	m.fallbacks[feature] = code
}

const sampleYAML = `
features:
  - name: plain-flag
    enabled: true
  - name: new-checkout
    enabled: true
    test-variations: [Enabled, Disabled]
    test-biases: [20, 80]
  - name: button-copy
    enabled: true
    test-variations: [A, B]
    test-biases: [80, 20]
    labels: [Buy now, Purchase]
  - name: hero-color
    enabled: false
    test-variations: [red, green, blue]
`

func TestParse_YAML(t *testing.T) {
	doc, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	require.Empty(t, doc.Warnings)
	require.Equal(t, []string{"plain-flag", "new-checkout", "button-copy", "hero-color"}, doc.Names())

	flag, _ := doc.Named("plain-flag")
	require.Equal(t, types.KindFlag, flag.Kind)
	require.True(t, flag.Enabled)
	require.Nil(t, flag.Weights)

	checkout, _ := doc.Named("new-checkout")
	require.Equal(t, types.KindFeatureTest, checkout.Kind)
	require.Equal(t, []int{20, 80}, checkout.Weights)

	copyTest, _ := doc.Named("button-copy")
	require.Equal(t, types.KindABTest, copyTest.Kind)
	require.Equal(t, []string{"Buy now", "Purchase"}, copyTest.Labels)

	hero, _ := doc.Named("hero-color")
	require.Equal(t, types.KindMVT, hero.Kind)
	require.False(t, hero.Enabled)
	require.Equal(t, []int{34, 33, 33}, hero.Weights, "no biases means uniform weights")
	require.False(t, hero.BiasFallback)
}

func TestParse_JSON(t *testing.T) {
	raw := `{"features":[{"name":"X","enabled":true,"test-variations":["A","B"],"test-biases":[80,20]}]}`

	doc, err := Parse([]byte(raw))
	require.NoError(t, err)

	f, ok := doc.Named("X")
	require.True(t, ok)
	require.Equal(t, types.KindABTest, f.Kind)
	require.Equal(t, []int{80, 20}, f.Weights)
}

func TestParse_MissingEnabledIsDisabled(t *testing.T) {
	doc, err := Parse([]byte("features:\n  - name: quiet\n"))
	require.NoError(t, err)

	f, _ := doc.Named("quiet")
	require.False(t, f.Enabled)
}

func TestParse_EmptyFeatureListIsValid(t *testing.T) {
	doc, err := Parse([]byte("features: []"))
	require.NoError(t, err)
	require.Empty(t, doc.Features)
}

func TestParse_BiasFallback(t *testing.T) {
	tests := []struct {
		name   string
		biases string
		reason string
	}{
		{"sum 99", "[49, 50]", "biases sum to 99, want 100"},
		{"sum 101", "[51, 50]", "biases sum to 101, want 100"},
		{"length mismatch", "[100]", "1 biases for 2 variations"},
		{"negative", "[-10, 110]", "bias 0 is negative (-10)"},
		{"non-integer", "[33.5, 66.5]", "biases must be a list of integers"},
		{"float summing to 100 after truncation", "[80.9, 20.0]", "biases must be a list of integers"},
		{"quoted numbers", `["80", "20"]`, "biases must be a list of integers"},
		{"overflowing sum", "[9223372036854775807, 9223372036854775807]", "bias 0 exceeds 100 (9223372036854775807)"},
		{"not a list", `"80/20"`, "biases must be a list of integers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &recordingLogger{}
			m := &recordingMetrics{}
			raw := "features:\n" +
				"  - name: broken\n    enabled: true\n    test-variations: [A, B]\n    test-biases: " + tt.biases + "\n" +
				"  - name: fine\n    enabled: true\n"

			doc, err := Parse([]byte(raw), WithLogger(logger), WithMetrics(m))
			require.NoError(t, err, "bias problems must not reject the document")
			require.Len(t, doc.Features, 2)

			f, _ := doc.Named("broken")
			require.True(t, f.BiasFallback)
			require.Equal(t, []int{50, 50}, f.Weights)

			require.Len(t, doc.Warnings, 1)
			w := doc.Warnings[0]
			require.Equal(t, types.WarnBiasFallback, w.Code)
			require.Equal(t, "broken", w.Feature)
			require.Equal(t, tt.reason, w.Reason)
			require.ErrorIs(t, w, types.ErrBiasFallback)

			require.Equal(t, []string{"feature biases rejected"}, logger.warnMessages)
			require.Equal(t, "bias_fallback", m.fallbacks["broken"])
		})
	}
}

func TestParse_BiasesIgnoredWithoutVariations(t *testing.T) {
	doc, err := Parse([]byte("features:\n  - name: flag\n    enabled: true\n    test-biases: [50, 50]\n"))
	require.NoError(t, err)

	require.Len(t, doc.Warnings, 1)
	require.Equal(t, types.WarnBiasesIgnored, doc.Warnings[0].Code)

	f, _ := doc.Named("flag")
	require.Equal(t, types.KindFlag, f.Kind)
	require.Nil(t, f.Weights)
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		issue string
	}{
		{"empty input", "   \n", "empty document"},
		{"missing features key", "flags: []", `missing "features" key`},
		{"not a mapping", "- a\n- b\n", "decode:"},
		{"empty name", "features:\n  - name: ''\n    enabled: true\n", "feature name is empty"},
		{
			"duplicate name",
			"features:\n  - name: a\n    enabled: true\n  - name: a\n    enabled: false\n",
			"duplicate feature name (first defined at features[0])",
		},
		{
			"labels mismatch",
			"features:\n  - name: a\n    enabled: true\n    test-variations: [x, y]\n    labels: [one]\n",
			"1 labels for 2 variations",
		},
		{
			"labels without variations",
			"features:\n  - name: a\n    enabled: true\n    labels: [one]\n",
			"1 labels for 0 variations",
		},
		{
			"duplicate variation",
			"features:\n  - name: a\n    enabled: true\n    test-variations: [x, X]\n",
			`duplicate variation name "X"`,
		},
		{
			"empty variation",
			"features:\n  - name: a\n    enabled: true\n    test-variations: [x, '']\n",
			"variation 1 has an empty name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &recordingMetrics{}
			doc, err := Parse([]byte(tt.raw), WithMetrics(m))
			require.Nil(t, doc)
			require.ErrorIs(t, err, types.ErrValidation)
			require.Contains(t, err.Error(), tt.issue)
			require.Equal(t, 1, m.validationFailures)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			require.NotEmpty(t, verr.Issues)
		})
	}
}

func TestParse_ReportsAllIssues(t *testing.T) {
	raw := `
features:
  - name: a
    enabled: true
  - name: a
    enabled: true
  - name: b
    enabled: true
    test-variations: [x, y]
    labels: [only-one]
`
	_, err := Parse([]byte(raw))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Issues, 2)
	require.Equal(t, 1, verr.Issues[0].Index)
	require.Equal(t, "labels", verr.Issues[1].Field)
}

func TestParse_DecodeErrorUnwrapsCause(t *testing.T) {
	_, err := Parse([]byte("features: [unclosed"))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Error(t, verr.Cause)
	require.ErrorIs(t, err, verr.Cause)
}

func TestFromFeatures(t *testing.T) {
	input := []types.Feature{
		{Name: " spaced ", Enabled: true, Variations: []string{"A", "B"}, Biases: []int{70, 30}},
		{Name: "stale", Enabled: true, Variations: []string{"A", "B"}, Weights: []int{1, 99}, BiasFallback: true},
	}

	doc, err := FromFeatures(input)
	require.NoError(t, err)

	spaced, ok := doc.Named("spaced")
	require.True(t, ok, "names are trimmed")
	require.Equal(t, []int{70, 30}, spaced.Weights)

	stale, _ := doc.Named("stale")
	require.Equal(t, []int{50, 50}, stale.Weights, "derived fields are recomputed")
	require.False(t, stale.BiasFallback)

	// The document owns its own copies.
	input[0].Variations[0] = "mutated"
	require.Equal(t, "A", spaced.Variations[0])

	_, err = FromFeatures([]types.Feature{{Name: "a"}, {Name: "a"}})
	require.ErrorIs(t, err, types.ErrValidation)
}

func TestMarshal_RoundTrip(t *testing.T) {
	doc, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	out, err := Marshal(doc)
	require.NoError(t, err)

	again, err := Parse(out)
	require.NoError(t, err)
	require.Equal(t, doc.Features, again.Features)

	empty, err := Marshal(nil)
	require.NoError(t, err)
	parsed, err := Parse(empty)
	require.NoError(t, err)
	require.Empty(t, parsed.Features)
}
