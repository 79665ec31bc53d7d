package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuckets_Index(t *testing.T) {
	b := NewBuckets([]int{80, 20})

	require.Equal(t, 2, b.Len())
	require.Equal(t, 100, b.Total())
	require.Equal(t, 0, b.Index(0))
	require.Equal(t, 0, b.Index(79))
	require.Equal(t, 1, b.Index(80), "boundary belongs to the upper bucket")
	require.Equal(t, 1, b.Index(99))
	require.Equal(t, -1, b.Index(100))
	require.Equal(t, -1, b.Index(-1))
}

func TestBuckets_ZeroWidthNeverSelected(t *testing.T) {
	tests := []struct {
		name    string
		weights []int
		skipped int
	}{
		{"leading zero", []int{0, 50, 50}, 0},
		{"middle zero", []int{50, 0, 50}, 1},
		{"trailing zero", []int{50, 50, 0}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuckets(tt.weights)
			for pos := range Scale {
				require.NotEqual(t, tt.skipped, b.Index(pos), "position %d landed in zero-width bucket", pos)
			}
		})
	}
}

func TestBuckets_TileExactly(t *testing.T) {
	for _, weights := range [][]int{
		{50, 50},
		{10, 90},
		{100},
		{34, 33, 33},
		{1, 1, 98},
		{25, 25, 25, 25},
	} {
		b := NewBuckets(weights)
		require.NoError(t, b.Validate())

		bounds := b.Bounds()
		require.Equal(t, 0, bounds[0].Lower)
		require.Equal(t, Scale, bounds[len(bounds)-1].Upper)
		for i := 1; i < len(bounds); i++ {
			require.Equal(t, bounds[i-1].Upper, bounds[i].Lower, "gap or overlap at bucket %d", i)
		}

		// Every position is contained in exactly one bound, the one Index picks.
		for pos := range Scale {
			owners := 0
			for i, bound := range bounds {
				if bound.Contains(pos) {
					owners++
					require.Equal(t, i, b.Index(pos))
				}
			}
			require.Equal(t, 1, owners, "position %d owned by %d buckets", pos, owners)
		}
	}
}

func TestBuckets_Validate(t *testing.T) {
	require.Error(t, NewBuckets(nil).Validate())
	require.Error(t, NewBuckets([]int{50, 49}).Validate())
	require.NoError(t, NewBuckets([]int{50, 50}).Validate())
}

func TestBuckets_NegativeWeightsClamped(t *testing.T) {
	b := NewBuckets([]int{-10, 60, 40})

	require.Equal(t, 100, b.Total())
	require.Equal(t, 0, b.Bounds()[0].Width())
	require.Equal(t, 1, b.Index(0))
}

func TestUniform(t *testing.T) {
	tests := []struct {
		n    int
		want []int
	}{
		{0, nil},
		{1, []int{100}},
		{2, []int{50, 50}},
		{3, []int{34, 33, 33}},
		{4, []int{25, 25, 25, 25}},
		{6, []int{17, 17, 17, 17, 16, 16}},
	}

	for _, tt := range tests {
		got := Uniform(tt.n)
		require.Equal(t, tt.want, got, "n=%d", tt.n)
		if tt.n > 0 {
			sum := 0
			for _, w := range got {
				sum += w
			}
			require.Equal(t, Scale, sum)
		}
	}
}
