// pkg/insights/insights.go
package insights

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/David-Botos/datawizard/pkg/model"
)

// ErrNotNumeric is returned when an analysis needs a numeric column
var ErrNotNumeric = errors.New("column is not numeric")

// Options tune the dashboard data
type Options struct {
	MaxCategories int // Top values kept per text column; 0 keeps all
}

// DefaultOptions returns the options used by the service
func DefaultOptions() Options {
	return Options{MaxCategories: 20}
}

// Overview holds the headline numbers of a table
type Overview struct {
	Rows          int            `json:"rows"`
	Columns       int            `json:"columns"`
	MissingValues int            `json:"missing_values"`
	Kinds         map[string]int `json:"kinds"` // Column count per kind name
}

// ColumnCount pairs a column with a count
type ColumnCount struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
}

// NumericSummary describes the distribution of a numeric column
type NumericSummary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// ValueCount is one bar of a categorical chart
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Categorical holds the value counts of a text column, most frequent first
type Categorical struct {
	Column   string       `json:"column"`
	Distinct int          `json:"distinct"`
	Values   []ValueCount `json:"values"`
}

// Correlation is a symmetric Pearson matrix rounded to two decimals.
// A pair without enough overlapping values is NaN, encoded as null.
type Correlation struct {
	Columns []string     `json:"columns"`
	Matrix  [][]*float64 `json:"matrix"`
}

// Report is the dashboard data handed to the chart renderer
type Report struct {
	Overview    Overview         `json:"overview"`
	Missing     []ColumnCount    `json:"missing"`
	Numeric     []NumericSummary `json:"numeric"`
	Categorical []Categorical    `json:"categorical"`
	Correlation *Correlation     `json:"correlation,omitempty"`
}

// Build computes the dashboard data for a table
func Build(t *model.Table, opts Options) *Report {
	report := &Report{
		Overview: Overview{
			Rows:          t.NumRows(),
			Columns:       t.NumColumns(),
			MissingValues: t.MissingTotal(),
			Kinds:         make(map[string]int),
		},
		Missing:     []ColumnCount{},
		Numeric:     []NumericSummary{},
		Categorical: []Categorical{},
	}

	var numericCols []*model.Column
	for i := range t.Columns {
		col := &t.Columns[i]
		kind := col.Kind()
		report.Overview.Kinds[kind.String()]++

		if missing := col.MissingCount(); missing > 0 {
			report.Missing = append(report.Missing, ColumnCount{Column: col.Name, Count: missing})
		}

		switch kind {
		case model.KindNumeric:
			numericCols = append(numericCols, col)
			if summary, ok := summarize(col); ok {
				report.Numeric = append(report.Numeric, summary)
			}
		case model.KindText:
			report.Categorical = append(report.Categorical, valueCounts(col, opts.MaxCategories))
		}
	}

	if len(numericCols) >= 2 {
		report.Correlation = correlate(numericCols)
	}

	return report
}

// finite reports whether v is a number other than an infinity
func finite(v model.Value) bool {
	return v.Type == model.ValueNumber && !math.IsInf(v.Num, 0)
}

// numbers returns the finite values of a numeric column
func numbers(col *model.Column) []float64 {
	xs := make([]float64, 0, len(col.Values))
	for _, v := range col.Values {
		if finite(v) {
			xs = append(xs, v.Num)
		}
	}
	return xs
}

func summarize(col *model.Column) (NumericSummary, bool) {
	xs := numbers(col)
	if len(xs) == 0 {
		return NumericSummary{}, false
	}
	sort.Float64s(xs)

	summary := NumericSummary{
		Column: col.Name,
		Count:  len(xs),
		Mean:   stat.Mean(xs, nil),
		Min:    xs[0],
		Q1:     quantile(xs, 0.25),
		Median: quantile(xs, 0.5),
		Q3:     quantile(xs, 0.75),
		Max:    xs[len(xs)-1],
	}
	if len(xs) > 1 {
		summary.Std = stat.StdDev(xs, nil)
	}
	return summary, true
}

// quantile interpolates linearly between closest ranks on sorted data,
// the estimator spreadsheet tools and dataframe libraries default to
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	h := p * float64(len(sorted)-1)
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

func valueCounts(col *model.Column, limit int) Categorical {
	counts := make(map[string]int)
	for _, v := range col.Values {
		if v.IsNull() {
			continue
		}
		counts[v.String()]++
	}

	values := make([]ValueCount, 0, len(counts))
	for value, count := range counts {
		values = append(values, ValueCount{Value: value, Count: count})
	}
	sort.Slice(values, func(a, b int) bool {
		if values[a].Count != values[b].Count {
			return values[a].Count > values[b].Count
		}
		return values[a].Value < values[b].Value
	})

	distinct := len(values)
	if limit > 0 && len(values) > limit {
		values = values[:limit]
	}
	return Categorical{Column: col.Name, Distinct: distinct, Values: values}
}

// correlate builds the pairwise-complete Pearson matrix
func correlate(cols []*model.Column) *Correlation {
	corr := &Correlation{
		Columns: make([]string, len(cols)),
		Matrix:  make([][]*float64, len(cols)),
	}
	for i, col := range cols {
		corr.Columns[i] = col.Name
		corr.Matrix[i] = make([]*float64, len(cols))
	}

	for i := range cols {
		for j := i; j < len(cols); j++ {
			r := pearson(cols[i], cols[j])
			if math.IsNaN(r) || math.IsInf(r, 0) {
				continue
			}
			r = math.Round(r*100) / 100
			corr.Matrix[i][j] = &r
			corr.Matrix[j][i] = &r
		}
	}
	return corr
}

func pearson(a, b *model.Column) float64 {
	var xs, ys []float64
	for k := range a.Values {
		if !finite(a.Values[k]) || !finite(b.Values[k]) {
			continue
		}
		xs = append(xs, a.Values[k].Num)
		ys = append(ys, b.Values[k].Num)
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// Outliers lists the rows of a numeric column outside the IQR fences
type Outliers struct {
	Column string  `json:"column"`
	Q1     float64 `json:"q1"`
	Q3     float64 `json:"q3"`
	Lower  float64 `json:"lower_bound"`
	Upper  float64 `json:"upper_bound"`
	Count  int     `json:"count"`
	Rows   []int   `json:"rows"` // First ten outlying row indices
}

// maxOutlierRows caps the sample of outlying rows
const maxOutlierRows = 10

// DetectOutliers applies the 1.5 IQR rule to column
func DetectOutliers(t *model.Table, column string) (*Outliers, error) {
	col := t.Column(column)
	if col == nil {
		return nil, fmt.Errorf("column %q not found", column)
	}
	if col.Kind() != model.KindNumeric {
		return nil, fmt.Errorf("%w: %q is %s", ErrNotNumeric, column, col.Kind())
	}

	xs := numbers(col)
	if len(xs) == 0 {
		return nil, fmt.Errorf("%w: %q has no values", ErrNotNumeric, column)
	}
	sort.Float64s(xs)

	q1, q3 := quantile(xs, 0.25), quantile(xs, 0.75)
	iqr := q3 - q1
	out := &Outliers{
		Column: column,
		Q1:     q1,
		Q3:     q3,
		Lower:  q1 - 1.5*iqr,
		Upper:  q3 + 1.5*iqr,
		Rows:   []int{},
	}

	for row, v := range col.Values {
		if v.Type != model.ValueNumber || (v.Num >= out.Lower && v.Num <= out.Upper) {
			continue
		}
		out.Count++
		if len(out.Rows) < maxOutlierRows {
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}
