package series

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTableAndSelect(t *testing.T) {
	tbl := NewTable([]string{"Date", "SP500"}, [][]string{
		{"2020-01-01", "3200"},
		{"2020-01-02", "3210"},
		{"2020-01-03"},
	})
	require.Equal(t, 3, tbl.Len())
	assert.True(t, tbl.HasColumn("SP500"))
	assert.False(t, tbl.HasColumn("sp500"))
	assert.Equal(t, []string{"3200", "3210", ""}, tbl.Column("SP500"))

	sub := tbl.SelectIndices([]int{2, 0})
	require.Equal(t, 2, sub.Len())
	assert.Equal(t, 0, sub.Rows[0].Index)
	assert.Equal(t, 2, sub.Rows[1].Index)
	assert.Equal(t, tbl.Headers, sub.Headers)
}

func TestSeriesAccessors(t *testing.T) {
	s := Series{Observations: []Observation{
		{Row: 3, X: 10, Value: 1.5},
		{Row: 5, X: 20, Value: 2.5},
	}}
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []float64{10, 20}, s.X())
	assert.Equal(t, []float64{1.5, 2.5}, s.Y())
	assert.Equal(t, []int{3, 5}, s.Rows())
}
