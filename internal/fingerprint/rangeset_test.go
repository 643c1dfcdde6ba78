package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeSet_String(t *testing.T) {
	tests := []struct {
		name   string
		builds []int
		want   string
	}{
		{"empty", nil, ""},
		{"single", []int{5}, "5"},
		{"contiguous run", []int{1, 2, 3}, "1-3"},
		{"run plus gap", []int{1, 2, 5}, "1-2,5"},
		{"multiple runs", []int{1, 2, 3, 7, 9, 10}, "1-3,7,9-10"},
		{"unordered input", []int{10, 1, 9, 2, 3, 7}, "1-3,7,9-10"},
		{"duplicates collapse", []int{4, 4, 4}, "4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewRangeSet(tt.builds...).String())
		})
	}
}

func TestParseRangeSet_RoundTrip(t *testing.T) {
	inputs := [][]int{
		{},
		{1},
		{1, 2, 5},
		{3, 4, 5, 6, 100},
		{42, 44, 46},
	}
	for _, builds := range inputs {
		r := NewRangeSet(builds...)
		parsed, err := ParseRangeSet(r.String())
		require.NoError(t, err)
		assert.True(t, r.Equal(parsed), "round trip of %v via %q", builds, r.String())
	}
}

func TestParseRangeSet_Forms(t *testing.T) {
	r, err := ParseRangeSet("1-3, 7 ,9-10")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2, 3, 7, 9, 10}, r.Numbers())

	empty, err := ParseRangeSet("   ")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestParseRangeSet_NegativeBuilds(t *testing.T) {
	// Build numbers are positive in practice, but the parser must accept
	// everything String can produce.
	r := NewRangeSet(-3, -2, 5)
	assert.Equal(t, "-3--2,5", r.String())

	parsed, err := ParseRangeSet(r.String())
	require.NoError(t, err)
	assert.True(t, r.Equal(parsed))

	single, err := ParseRangeSet("-3")
	require.NoError(t, err)
	assert.Equal(t, []int{-3}, single.Numbers())
}

func TestParseRangeSet_Invalid(t *testing.T) {
	for _, input := range []string{"a", "1-", "--3", "5-2", "1,,2"} {
		_, err := ParseRangeSet(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestRangeSet_SetSemantics(t *testing.T) {
	r := NewRangeSet(2, 1)
	r.Add(5)
	r.Add(5)

	assert.Equal(t, 3, r.Len())
	assert.True(t, r.Contains(5))
	assert.False(t, r.Contains(4))
	assert.Equal(t, []int{1, 2, 5}, r.Numbers())

	assert.True(t, r.Equal(NewRangeSet(5, 1, 2)))
	assert.False(t, r.Equal(NewRangeSet(1, 2)))
}
