package registry

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/rollout/document"
	"github.com/arloliu/rollout/internal/hash"
	"github.com/arloliu/rollout/types"
)

// fixedStrategy always assigns the same index and counts invocations.
type fixedStrategy struct {
	idx   int
	calls atomic.Int64
}

func (f *fixedStrategy) Assign(_ string, _ *types.Feature) int {
	f.calls.Add(1)
	return f.idx
}

// bucketStrategy records the bucket tables it is handed.
type bucketStrategy struct {
	fixedStrategy
	mu     sync.Mutex
	tables []*hash.Buckets
}

func (b *bucketStrategy) AssignBuckets(_ string, _ *types.Feature, buckets *hash.Buckets) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tables = append(b.tables, buckets)

	return b.idx
}

type assignmentRecorder struct {
	mu          sync.Mutex
	assignments map[string]int
	hits        atomic.Int64
	misses      atomic.Int64
}

func (a *assignmentRecorder) RecordAssignment(feature string, variation string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.assignments == nil {
		a.assignments = make(map[string]int)
	}
	a.assignments[feature+"/"+variation]++
}

func (a *assignmentRecorder) RecordMemoLookup(hit bool) {
	if hit {
		a.hits.Add(1)
	} else {
		a.misses.Add(1)
	}
}

const registryYAML = `
features:
  - name: dark-mode
    enabled: true
  - name: legacy
    enabled: false
  - name: checkout
    enabled: true
    test-variations: [Enabled, Disabled]
    test-biases: [50, 50]
  - name: banner
    enabled: true
    test-variations: [A, B]
    test-biases: [80, 20]
    labels: [Hello, Welcome]
  - name: paused
    enabled: false
    test-variations: [A, B]
`

func mustParse(t *testing.T, raw string) *types.Document {
	t.Helper()
	doc, err := document.Parse([]byte(raw))
	require.NoError(t, err)

	return doc
}

func TestRegistry_StateAndSwap(t *testing.T) {
	r := New()
	require.Nil(t, r.Load())
	require.Equal(t, types.StateUninitialized, r.State())

	s1 := r.Build(mustParse(t, registryYAML), 1)
	require.Nil(t, r.Swap(s1))
	require.Equal(t, types.StateActive, r.State())
	require.Same(t, s1, r.Load())
	require.Equal(t, uint64(1), r.Load().Version())
	require.Equal(t, 5, r.Load().Len())

	s2 := r.Build(mustParse(t, "features: []"), 2)
	require.Same(t, s1, r.Swap(s2))
	require.Equal(t, uint64(2), r.Load().Version())
}

func TestSnapshot_IsEnabled(t *testing.T) {
	enabledSide := &fixedStrategy{idx: 0}
	disabledSide := &fixedStrategy{idx: 1}

	doc := mustParse(t, registryYAML)
	on := New(WithStrategy(enabledSide)).Build(doc, 1)
	off := New(WithStrategy(disabledSide)).Build(doc, 1)

	tests := []struct {
		feature string
		on      bool
		off     bool
	}{
		{"dark-mode", true, true},
		{"legacy", false, false},
		{"checkout", true, false},
		{"banner", true, true},
		{"paused", false, false},
		{"missing", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.feature, func(t *testing.T) {
			require.Equal(t, tt.on, on.IsEnabled(tt.feature, "user-1"))
			require.Equal(t, tt.off, off.IsEnabled(tt.feature, "user-1"))
		})
	}
}

func TestSnapshot_FeatureTestOrderDoesNotMatter(t *testing.T) {
	doc := mustParse(t, `
features:
  - name: reversed
    enabled: true
    test-variations: [disabled, ENABLED]
`)
	s := New(WithStrategy(&fixedStrategy{idx: 1})).Build(doc, 1)
	require.True(t, s.IsEnabled("reversed", "user-1"))
}

func TestSnapshot_Variation(t *testing.T) {
	s := New(WithStrategy(&fixedStrategy{idx: 1})).Build(mustParse(t, registryYAML), 3)

	ref, ok := s.Variation("banner", "user-1")
	require.True(t, ok)
	require.Equal(t, types.VariationRef{Index: 1, Name: "B", Label: "Welcome"}, ref)

	ref, ok = s.Variation("checkout", "user-1")
	require.True(t, ok)
	require.Equal(t, "Disabled", ref.Name)
	require.Empty(t, ref.Label)

	for _, name := range []string{"dark-mode", "paused", "missing"} {
		_, ok := s.Variation(name, "user-1")
		require.False(t, ok, name)
	}

	a := s.Assignment("paused", "user-1")
	require.False(t, a.HasVariation(), "disabled features fail closed")
	require.Equal(t, uint64(3), a.Version)
}

func TestSnapshot_Label(t *testing.T) {
	s := New().Build(mustParse(t, registryYAML), 1)

	label, ok := s.Label("banner", 0)
	require.True(t, ok)
	require.Equal(t, "Hello", label)

	_, ok = s.Label("banner", 2)
	require.False(t, ok)
	_, ok = s.Label("checkout", 0)
	require.False(t, ok)
	_, ok = s.Label("missing", 0)
	require.False(t, ok)
}

func TestSnapshot_Evaluate(t *testing.T) {
	s := New(WithStrategy(&fixedStrategy{idx: 0})).Build(mustParse(t, registryYAML), 7)

	d, err := s.Evaluate("banner", "user-9")
	require.NoError(t, err)
	require.Equal(t, "banner", d.Feature)
	require.Equal(t, "user-9", d.SubjectID)
	require.Equal(t, types.KindABTest, d.Kind)
	require.True(t, d.Enabled)
	require.Equal(t, uint64(7), d.Version)
	require.NotNil(t, d.Variation)
	require.Equal(t, "Hello", d.Variation.Label)

	d, err = s.Evaluate("dark-mode", "user-9")
	require.NoError(t, err)
	require.Equal(t, types.KindFlag, d.Kind)
	require.True(t, d.Enabled)
	require.Nil(t, d.Variation)

	_, err = s.Evaluate("missing", "user-9")
	require.ErrorIs(t, err, types.ErrUnknownFeature)
	require.Contains(t, err.Error(), `"missing"`)
}

func TestSnapshot_Memoization(t *testing.T) {
	strat := &fixedStrategy{idx: 0}
	rec := &assignmentRecorder{}
	r := New(WithStrategy(strat), WithMetrics(rec))
	s := r.Build(mustParse(t, registryYAML), 1)

	for range 10 {
		s.Variation("banner", "user-1")
	}
	require.Equal(t, int64(1), strat.calls.Load())
	require.Equal(t, 1, s.MemoSize())
	require.Equal(t, int64(9), rec.hits.Load())
	require.Equal(t, int64(1), rec.misses.Load())
	require.Equal(t, 10, rec.assignments["banner/A"], "memo hits are counted as decisions")

	// A new snapshot starts with an empty memo.
	next := r.Build(mustParse(t, registryYAML), 2)
	require.Equal(t, 0, next.MemoSize())
	next.Variation("banner", "user-1")
	require.Equal(t, int64(2), strat.calls.Load())
}

func TestSnapshot_MemoDisabledAndBounded(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		strat := &fixedStrategy{idx: 0}
		s := New(WithStrategy(strat), WithMaxCachedAssignments(0)).Build(mustParse(t, registryYAML), 1)

		for range 5 {
			s.Variation("banner", "user-1")
		}
		require.Equal(t, int64(5), strat.calls.Load())
		require.Equal(t, 0, s.MemoSize())
	})

	t.Run("bounded", func(t *testing.T) {
		s := New(WithMaxCachedAssignments(3)).Build(mustParse(t, registryYAML), 1)

		for i := range 10 {
			s.Variation("banner", fmt.Sprintf("user-%d", i))
		}
		require.Equal(t, 3, s.MemoSize())
	})
}

func TestSnapshot_MemoMatchesStrategy(t *testing.T) {
	s := New().Build(mustParse(t, registryYAML), 1)

	for i := range 200 {
		subject := fmt.Sprintf("subject-%d", i)
		first, _ := s.Variation("banner", subject)
		second, _ := s.Variation("banner", subject)
		require.Equal(t, first, second)

		pos := hash.Position(subject, "banner", 0)
		if pos < 80 {
			require.Equal(t, "A", first.Name, "position %d", pos)
		} else {
			require.Equal(t, "B", first.Name, "position %d", pos)
		}
	}
}

func TestSnapshot_ReusesPrecomputedBuckets(t *testing.T) {
	strat := &bucketStrategy{fixedStrategy: fixedStrategy{idx: 1}}
	s := New(WithStrategy(strat), WithMaxCachedAssignments(0)).Build(mustParse(t, registryYAML), 1)

	for i := range 5 {
		ref, ok := s.Variation("banner", fmt.Sprintf("user-%d", i))
		require.True(t, ok)
		require.Equal(t, "B", ref.Name)
	}

	require.Zero(t, strat.calls.Load(), "Assign must not rebuild the bucket table")
	require.Len(t, strat.tables, 5)
	for _, table := range strat.tables {
		require.Same(t, s.buckets[s.index["banner"]], table)
	}

	// A hand-built feature that is not part of the snapshot goes through Assign.
	stray := &types.Feature{Name: "banner", Enabled: true, Variations: []string{"A", "B"}}
	s.assign(stray, "user-1")
	require.Equal(t, int64(1), strat.calls.Load())
}

func TestSnapshot_Bounds(t *testing.T) {
	s := New().Build(mustParse(t, registryYAML), 1)

	bounds, ok := s.Bounds("banner")
	require.True(t, ok)
	require.Equal(t, []hash.Bound{{Lower: 0, Upper: 80}, {Lower: 80, Upper: 100}}, bounds)

	bounds, ok = s.Bounds("dark-mode")
	require.True(t, ok)
	require.Nil(t, bounds)

	_, ok = s.Bounds("missing")
	require.False(t, ok)
}

func TestSnapshot_FeaturesAreCopies(t *testing.T) {
	s := New().Build(mustParse(t, registryYAML), 1)

	features := s.Features()
	require.Len(t, features, 5)
	features[3].Variations[0] = "mutated"

	f, _ := s.Named("banner")
	require.Equal(t, "A", f.Variations[0])
}

func TestSnapshot_ConcurrentLookups(t *testing.T) {
	r := New(WithMaxCachedAssignments(50))
	r.Swap(r.Build(mustParse(t, registryYAML), 1))

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Go(func() {
			for i := range 500 {
				subject := fmt.Sprintf("g%d-user-%d", g, i%100)
				s := r.Load()
				_, _ = s.Variation("banner", subject)
				_ = s.IsEnabled("checkout", subject)
			}
		})
	}

	for v := uint64(2); v < 20; v++ {
		r.Swap(r.Build(mustParse(t, registryYAML), v))
	}
	wg.Wait()

	require.Equal(t, uint64(19), r.Load().Version())
}

func BenchmarkSnapshot_VariationMemoized(b *testing.B) {
	doc, err := document.Parse([]byte(registryYAML))
	require.NoError(b, err)
	s := New().Build(doc, 1)

	for b.Loop() {
		s.Variation("banner", "user-1")
	}
}

func BenchmarkSnapshot_VariationUncached(b *testing.B) {
	doc, err := document.Parse([]byte(registryYAML))
	require.NoError(b, err)
	s := New(WithMaxCachedAssignments(0)).Build(doc, 1)

	for b.Loop() {
		s.Variation("banner", "user-1")
	}
}
