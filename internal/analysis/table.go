package analysis

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/catlens/internal/table"
	"gonum.org/v1/gonum/stat"
)

// Column kinds, named the way dataframe libraries print dtypes.
const (
	KindInt    = "int64"
	KindFloat  = "float64"
	KindObject = "object"
)

// ColumnType is the inferred kind of a column.
type ColumnType struct {
	Name string
	Kind string
}

// MissingCount is the number of missing cells in a column.
type MissingCount struct {
	Name    string
	Missing int
}

// Summary holds descriptive statistics of one numeric column. Undefined
// values (std of a single value, anything of an empty column) are NaN.
type Summary struct {
	Name  string
	Count int
	Mean  float64
	Std   float64
	Min   float64
	Q25   float64
	Q50   float64
	Q75   float64
	Max   float64
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// InferTypes decides a kind per column over the whole table. A column is
// int64 when every present cell is an integer and none is missing, float64
// when every present cell is numeric, object otherwise. An all-missing
// column is float64.
func InferTypes(t *table.Table) []ColumnType {
	out := make([]ColumnType, len(t.Header))
	for j, name := range t.Header {
		ints, nums, miss, other := 0, 0, 0, 0
		for _, r := range t.Rows {
			v := r[j]
			if table.IsMissing(v) {
				miss++
				continue
			}
			if _, ok, err := table.ParseFloat(v); err != nil || !ok {
				other++
				continue
			}
			nums++
			if isIntLiteral(v) {
				ints++
			}
		}
		kind := KindObject
		switch {
		case other > 0:
		case nums > 0 && ints == nums && miss == 0:
			kind = KindInt
		default:
			kind = KindFloat
		}
		out[j] = ColumnType{Name: name, Kind: kind}
	}
	return out
}

// NumericColumns returns the names of int64 and float64 columns in header order.
func NumericColumns(types []ColumnType) []string {
	var cols []string
	for _, ct := range types {
		if ct.Kind == KindInt || ct.Kind == KindFloat {
			cols = append(cols, ct.Name)
		}
	}
	return cols
}

// MissingCounts counts missing cells per column.
func MissingCounts(t *table.Table) []MissingCount {
	out := make([]MissingCount, len(t.Header))
	for j, name := range t.Header {
		out[j].Name = name
		for _, r := range t.Rows {
			if table.IsMissing(r[j]) {
				out[j].Missing++
			}
		}
	}
	return out
}

// Describe summarizes the named numeric columns.
func Describe(t *table.Table, cols []string) ([]Summary, error) {
	out := make([]Summary, 0, len(cols))
	for _, name := range cols {
		vals, err := t.Floats(name)
		if err != nil {
			return nil, err
		}
		s := Summarize(vals)
		s.Name = name
		out = append(out, s)
	}
	return out, nil
}

// Summarize computes count, mean, sample std, min, quartiles and max,
// ignoring NaN values.
func Summarize(vals []float64) Summary {
	xs := present(vals)
	nan := math.NaN()
	s := Summary{Count: len(xs), Mean: nan, Std: nan, Min: nan, Q25: nan, Q50: nan, Q75: nan, Max: nan}
	if len(xs) == 0 {
		return s
	}
	s.Mean, s.Std = MeanStd(xs)
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Q25 = quantile(sorted, 0.25)
	s.Q50 = quantile(sorted, 0.5)
	s.Q75 = quantile(sorted, 0.75)
	return s
}

// MeanStd returns the mean and the sample standard deviation (n-1
// denominator) of the non-NaN values. Std is NaN with fewer than two values
// and exactly 0 when all values are equal.
func MeanStd(vals []float64) (mean, std float64) {
	xs := present(vals)
	switch len(xs) {
	case 0:
		return math.NaN(), math.NaN()
	case 1:
		return xs[0], math.NaN()
	}
	if constant(xs) {
		return xs[0], 0
	}
	return stat.MeanStdDev(xs, nil)
}

func constant(xs []float64) bool {
	for _, v := range xs[1:] {
		if v != xs[0] {
			return false
		}
	}
	return true
}

// Correlation computes pairwise Pearson correlations using rows where both
// values are present. Pairs with fewer than two shared rows or zero
// variance are NaN, including the diagonal of a constant column.
func Correlation(t *table.Table, cols []string) (*CorrMatrix, error) {
	data := make([][]float64, len(cols))
	for i, name := range cols {
		vals, err := t.Floats(name)
		if err != nil {
			return nil, err
		}
		data[i] = vals
	}
	n := len(cols)
	m := &CorrMatrix{Columns: append([]string(nil), cols...), Values: make([][]float64, n)}
	for i := range m.Values {
		m.Values[i] = make([]float64, n)
	}
	for a := 0; a < n; a++ {
		for b := a; b < n; b++ {
			r := pearson(data[a], data[b])
			m.Values[a][b] = r
			m.Values[b][a] = r
		}
	}
	return m, nil
}

func pearson(x, y []float64) float64 {
	var xs, ys []float64
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	if constant(xs) || constant(ys) {
		return math.NaN()
	}
	r := stat.Correlation(xs, ys, nil)
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

// Standardize maps each value to (x-mean)/std using the sample std. NaN
// values stay NaN. With fewer than two values or zero variance every
// present value becomes 0.
func Standardize(vals []float64) []float64 {
	mean, std := MeanStd(vals)
	out := make([]float64, len(vals))
	degenerate := math.IsNaN(std) || math.IsInf(std, 0) || std == 0
	for i, v := range vals {
		switch {
		case math.IsNaN(v):
			out[i] = v
		case degenerate:
			out[i] = 0
		default:
			out[i] = (v - mean) / std
		}
	}
	return out
}

// ZScores returns the z-score of every value within vals. Entries are NaN
// for missing values and for all values when the std is undefined or 0.
func ZScores(vals []float64) []float64 {
	mean, std := MeanStd(vals)
	out := make([]float64, len(vals))
	degenerate := math.IsNaN(std) || math.IsInf(std, 0) || std == 0
	for i, v := range vals {
		if degenerate || math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		out[i] = (v - mean) / std
	}
	return out
}

// Outliers returns the indices whose absolute z-score exceeds threshold.
func Outliers(vals []float64, threshold float64) []int {
	var idx []int
	for i, z := range ZScores(vals) {
		if !math.IsNaN(z) && math.Abs(z) > threshold {
			idx = append(idx, i)
		}
	}
	return idx
}

func present(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

func isIntLiteral(s string) bool {
	_, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return err == nil
}

// quantile interpolates linearly between closest ranks of sorted data.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
