package typeahead

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		index, length, expected int
	}{
		{0, 5, 0},
		{4, 5, 4},
		{5, 5, 0},
		{-1, 5, 4},
		{-5, 5, 0},
		{-6, 5, 4},
		{12, 5, 2},
		{-3, 3, 0},
		{7, 1, 0},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Normalize(tc.index, tc.length), "Normalize(%d, %d)", tc.index, tc.length)
	}
}

func TestNormalizeRangeAndPeriod(t *testing.T) {
	indices := []int{0, 1, -1, 99, -99, 1 << 40, -(1 << 40), math.MaxInt32, math.MinInt32}
	for _, length := range []int{1, 2, 3, 7, 64} {
		for _, i := range indices {
			got := Normalize(i, length)
			assert.GreaterOrEqual(t, got, 0)
			assert.Less(t, got, length)
			assert.Equal(t, got, Normalize(i+length, length))
		}
	}
}

func TestNormalizeEmptyListPanics(t *testing.T) {
	assert.Panics(t, func() { Normalize(0, 0) })
	assert.Panics(t, func() { Normalize(3, -1) })
}

func TestParseKey(t *testing.T) {
	assert.Equal(t, KeyUp, ParseKey("ArrowUp"))
	assert.Equal(t, KeyDown, ParseKey("down"))
	assert.Equal(t, KeyEscape, ParseKey("esc"))
	assert.Equal(t, KeyEnter, ParseKey("Return"))
	assert.Equal(t, KeyTab, ParseKey("tab"))
	assert.Equal(t, KeyOther, ParseKey("a"))
	assert.Equal(t, "escape", KeyEscape.String())
}
