package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	kept, counts, report, err := Sanitize([]string{" qty ", "4", "do NOT delete or edit", "abc", "-2", " 1.5 "})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 5}, kept)
	require.Len(t, counts, 2)
	assert.Equal(t, "4", counts[0].String())
	assert.Equal(t, "1.5", counts[1].String())

	assert.Equal(t, "qty", report.StrayHeader)
	assert.Equal(t, 1, report.CommentRows)
	assert.Equal(t, 1, report.NonNumericRows)
	assert.Equal(t, 1, report.NegativeRows)
	assert.Equal(t, 4, report.Dropped())
	assert.Len(t, report.Notices(), 4)
}

func TestSanitize_StrayHeaderOnlyFirstRow(t *testing.T) {
	kept, _, report, err := Sanitize([]string{"1", "PID", "2"})
	require.NoError(t, err)

	assert.Empty(t, report.StrayHeader)
	assert.Equal(t, []int{0, 2}, kept)
	assert.Equal(t, 1, report.NonNumericRows)
}

func TestSanitize_RejectsExtremeExponents(t *testing.T) {
	kept, counts, report, err := Sanitize([]string{"1e50000000", "2", "1e-40", "3e5"})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3}, kept)
	assert.Equal(t, "300000", counts[1].String())
	assert.Equal(t, 2, report.NonNumericRows)
}

func TestParseCount_Bounds(t *testing.T) {
	_, ok := ParseCount("1e28")
	assert.True(t, ok)
	_, ok = ParseCount("1e29")
	assert.False(t, ok)
	_, ok = ParseCount("1e2000000000")
	assert.False(t, ok)
}

func TestSanitize_AllDropped(t *testing.T) {
	_, _, _, err := Sanitize([]string{"COUNT", "n/a", ""})
	assert.ErrorIs(t, err, ErrNoValidRows)
}

func TestNumericRatio(t *testing.T) {
	assert.InDelta(t, 0.5, NumericRatio([]string{"1", "", "x", "2.0"}), 0.0001)
	assert.Zero(t, NumericRatio(nil))
}
