package insights

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/datawizard/pkg/model"
)

func sampleTable() *model.Table {
	t := model.NewTable("x", "y", "city", "flat")
	rows := [][]model.Value{
		{model.Number(1), model.Number(2), model.Text("La"), model.Number(5)},
		{model.Number(2), model.Number(4), model.Text("Nyc"), model.Number(5)},
		{model.Number(3), model.Number(6), model.Text("La"), model.Number(5)},
		{model.Number(4), model.Null(), model.Null(), model.Number(5)},
		{model.Number(100), model.Number(10), model.Text("Sf"), model.Number(5)},
	}
	for _, row := range rows {
		t.AppendRow(row)
	}
	return t
}

func TestBuildOverviewAndMissing(t *testing.T) {
	r := Build(sampleTable(), DefaultOptions())

	assert.Equal(t, 5, r.Overview.Rows)
	assert.Equal(t, 4, r.Overview.Columns)
	assert.Equal(t, 2, r.Overview.MissingValues)
	assert.Equal(t, map[string]int{"numeric": 3, "text": 1}, r.Overview.Kinds)
	assert.Equal(t, []ColumnCount{{Column: "y", Count: 1}, {Column: "city", Count: 1}}, r.Missing)
}

func TestNumericSummary(t *testing.T) {
	r := Build(sampleTable(), DefaultOptions())
	require.Len(t, r.Numeric, 3)

	x := r.Numeric[0]
	assert.Equal(t, "x", x.Column)
	assert.Equal(t, 5, x.Count)
	assert.InDelta(t, 22, x.Mean, 1e-9)
	assert.InDelta(t, 43.6176570, x.Std, 1e-6)
	assert.Equal(t, 1.0, x.Min)
	assert.Equal(t, 2.0, x.Q1)
	assert.Equal(t, 3.0, x.Median)
	assert.Equal(t, 4.0, x.Q3)
	assert.Equal(t, 100.0, x.Max)

	y := r.Numeric[1]
	assert.Equal(t, 4, y.Count)
	assert.Equal(t, 5.0, y.Median)
	assert.Equal(t, 3.5, y.Q1)
}

func TestInfinitiesLeftOutOfStatistics(t *testing.T) {
	tbl := model.NewTable("a", "b")
	tbl.AppendRow([]model.Value{model.Number(1), model.Number(2)})
	tbl.AppendRow([]model.Value{model.Number(math.Inf(1)), model.Number(3)})
	tbl.AppendRow([]model.Value{model.Number(3), model.Number(math.Inf(-1))})
	tbl.AppendRow([]model.Value{model.Number(5), model.Number(4)})

	r := Build(tbl, DefaultOptions())
	require.Len(t, r.Numeric, 2)
	a := r.Numeric[0]
	assert.Equal(t, 3, a.Count)
	assert.Equal(t, 3.0, a.Mean)
	assert.Equal(t, 5.0, a.Max)
	assert.False(t, math.IsInf(r.Numeric[1].Min, 0))

	require.NotNil(t, r.Correlation)
	require.NotNil(t, r.Correlation.Matrix[0][1])
	assert.Equal(t, 1.0, *r.Correlation.Matrix[0][1])

	out, err := DetectOutliers(tbl, "a")
	require.NoError(t, err)
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, []int{1}, out.Rows)
}

func TestQuantileInterpolates(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	assert.Equal(t, 1.75, quantile(xs, 0.25))
	assert.Equal(t, 2.5, quantile(xs, 0.5))
	assert.Equal(t, 3.25, quantile(xs, 0.75))
	assert.Equal(t, 4.0, quantile(xs, 1))
	assert.Equal(t, 7.0, quantile([]float64{7}, 0.5))
}

func TestValueCounts(t *testing.T) {
	r := Build(sampleTable(), DefaultOptions())
	require.Len(t, r.Categorical, 1)

	city := r.Categorical[0]
	assert.Equal(t, 3, city.Distinct)
	assert.Equal(t, []ValueCount{{"La", 2}, {"Nyc", 1}, {"Sf", 1}}, city.Values)

	limited := Build(sampleTable(), Options{MaxCategories: 1})
	assert.Equal(t, []ValueCount{{"La", 2}}, limited.Categorical[0].Values)
	assert.Equal(t, 3, limited.Categorical[0].Distinct)
}

func TestCorrelation(t *testing.T) {
	r := Build(sampleTable(), DefaultOptions())
	require.NotNil(t, r.Correlation)
	assert.Equal(t, []string{"x", "y", "flat"}, r.Correlation.Columns)

	m := r.Correlation.Matrix
	require.NotNil(t, m[0][0])
	assert.Equal(t, 1.0, *m[0][0])
	require.NotNil(t, m[0][1])
	assert.Equal(t, *m[0][1], *m[1][0])
	assert.Equal(t, 0.89, *m[0][1])
	assert.Equal(t, *m[0][1], math.Round(*m[0][1]*100)/100)

	// a constant column has no defined correlation
	assert.Nil(t, m[0][2])
	assert.Nil(t, m[2][2])
}

func TestCorrelationNeedsTwoNumericColumns(t *testing.T) {
	table := model.NewTable("only")
	table.AppendRow([]model.Value{model.Number(1)})
	assert.Nil(t, Build(table, DefaultOptions()).Correlation)
}

func TestDetectOutliers(t *testing.T) {
	out, err := DetectOutliers(sampleTable(), "x")
	require.NoError(t, err)

	assert.Equal(t, 2.0, out.Q1)
	assert.Equal(t, 4.0, out.Q3)
	assert.Equal(t, -1.0, out.Lower)
	assert.Equal(t, 7.0, out.Upper)
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, []int{4}, out.Rows)
}

func TestDetectOutliersCapsRows(t *testing.T) {
	table := model.NewTable("v")
	for i := 0; i < 50; i++ {
		table.AppendRow([]model.Value{model.Number(0)})
	}
	for i := 0; i < 12; i++ {
		table.AppendRow([]model.Value{model.Number(1000)})
	}

	out, err := DetectOutliers(table, "v")
	require.NoError(t, err)
	assert.Equal(t, 12, out.Count)
	assert.Len(t, out.Rows, maxOutlierRows)
	assert.Equal(t, 50, out.Rows[0])
}

func TestDetectOutliersRejectsTextColumn(t *testing.T) {
	_, err := DetectOutliers(sampleTable(), "city")
	assert.ErrorIs(t, err, ErrNotNumeric)

	_, err = DetectOutliers(sampleTable(), "nope")
	assert.Error(t, err)
}
