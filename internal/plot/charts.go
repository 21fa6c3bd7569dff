package plot

import (
	"fmt"
	"image/color"
	"math"
	"sort"

	"github.com/KaramelBytes/catlens/internal/analysis"
	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	fillColor = color.RGBA{R: 76, G: 114, B: 176, A: 255}
	edgeColor = color.Black
)

// Bins splits finite values into n equal-width bins over [min, max], the
// last bin closed on the right. A zero-width range is widened to
// [v-0.5, v+0.5].
func Bins(vals []float64, n int) []plotter.HistogramBin {
	xs := finite(vals)
	if len(xs) == 0 || n <= 0 {
		return nil
	}
	lo, hi := xs[0], xs[0]
	for _, v := range xs[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo -= 0.5
		hi += 0.5
	}
	width := (hi - lo) / float64(n)
	bins := make([]plotter.HistogramBin, n)
	for i := range bins {
		bins[i].Min = lo + float64(i)*width
		bins[i].Max = lo + float64(i+1)*width
	}
	bins[n-1].Max = hi
	for _, v := range xs {
		i := int((v - lo) / width)
		if i >= n {
			i = n - 1
		}
		if i < 0 {
			i = 0
		}
		bins[i].Weight++
	}
	return bins
}

// Histogram draws a frequency histogram of vals.
func Histogram(title, xLabel string, vals []float64, n int) (*gplot.Plot, error) {
	bins := Bins(vals, n)
	if len(bins) == 0 {
		return nil, ErrNoData
	}
	h := &plotter.Histogram{
		Bins:      bins,
		Width:     bins[len(bins)-1].Max - bins[0].Min,
		FillColor: fillColor,
		LineStyle: plotter.DefaultLineStyle,
	}
	h.LineStyle.Color = edgeColor
	p := gplot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "Frequency"
	p.Add(h)
	return p, nil
}

// BoxPlot draws one vertical box of vals labeled tick on the x axis.
func BoxPlot(title, tick, xLabel, yLabel string, vals []float64) (*gplot.Plot, error) {
	xs := finite(vals)
	if len(xs) == 0 {
		return nil, ErrNoData
	}
	b, err := plotter.NewBoxPlot(vg.Points(80), 0, plotter.Values(xs))
	if err != nil {
		return nil, fmt.Errorf("box plot: %w", err)
	}
	b.FillColor = fillColor
	p := gplot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(b)
	p.NominalX(tick)
	return p, nil
}

// Heatmap draws an annotated correlation matrix with a blue-red diverging
// palette over [-1, 1]. NaN cells are left blank and labeled "nan".
func Heatmap(title string, m *analysis.CorrMatrix) (*gplot.Plot, error) {
	if m == nil || len(m.Columns) == 0 {
		return nil, ErrNoData
	}
	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-1)
	cmap.SetMax(1)
	g := corrGrid{m: m}
	h := plotter.NewHeatMap(g, cmap.Palette(255))
	h.Min, h.Max = -1, 1
	h.NaN = color.Transparent

	n := len(m.Columns)
	xys := make(plotter.XYs, 0, n*n)
	labels := make([]string, 0, n*n)
	for c := 0; c < n; c++ {
		for r := 0; r < n; r++ {
			v := g.Z(c, r)
			xys = append(xys, plotter.XY{X: g.X(c), Y: g.Y(r)})
			if math.IsNaN(v) {
				labels = append(labels, "nan")
				continue
			}
			labels = append(labels, fmt.Sprintf("%.3f", v))
		}
	}
	ann, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return nil, fmt.Errorf("heatmap labels: %w", err)
	}
	for i := range ann.TextStyle {
		ann.TextStyle[i].XAlign = -0.5
		ann.TextStyle[i].YAlign = -0.5
	}

	xt := make([]gplot.Tick, n)
	yt := make([]gplot.Tick, n)
	for i, name := range m.Columns {
		xt[i] = gplot.Tick{Value: float64(i), Label: name}
		yt[i] = gplot.Tick{Value: float64(n - 1 - i), Label: name}
	}
	p := gplot.New()
	p.Title.Text = title
	p.Add(h, ann)
	p.X.Tick.Marker = gplot.ConstantTicks(xt)
	p.Y.Tick.Marker = gplot.ConstantTicks(yt)
	p.X.Min, p.X.Max = -0.5, float64(n)-0.5
	p.Y.Min, p.Y.Max = -0.5, float64(n)-0.5
	return p, nil
}

// corrGrid exposes a correlation matrix as a heat map grid with the first
// column drawn in the top row.
type corrGrid struct{ m *analysis.CorrMatrix }

func (g corrGrid) Dims() (c, r int) { n := len(g.m.Columns); return n, n }
func (g corrGrid) Z(c, r int) float64 {
	n := len(g.m.Columns)
	return g.m.Values[n-1-r][c]
}
func (g corrGrid) X(c int) float64 { return float64(c) }
func (g corrGrid) Y(r int) float64 { return float64(r) }

// Violin draws a mirrored Gaussian kernel density of vals with the
// interquartile range and median marked. A constant sample is drawn as a
// flat line.
func Violin(title, tick, xLabel, yLabel string, vals []float64) (*gplot.Plot, error) {
	xs := finite(vals)
	if len(xs) == 0 {
		return nil, ErrNoData
	}
	sort.Float64s(xs)
	p := gplot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	const halfWidth = 0.4
	outline := ViolinOutline(xs, 0, halfWidth, 100)
	if len(outline) > 0 {
		poly, err := plotter.NewPolygon(outline)
		if err != nil {
			return nil, fmt.Errorf("violin body: %w", err)
		}
		poly.Color = fillColor
		poly.LineStyle.Color = edgeColor
		p.Add(poly)
	} else {
		flat, err := plotter.NewLine(plotter.XYs{{X: -halfWidth, Y: xs[0]}, {X: halfWidth, Y: xs[0]}})
		if err != nil {
			return nil, fmt.Errorf("violin body: %w", err)
		}
		flat.Color = fillColor
		flat.Width = vg.Points(2)
		p.Add(flat)
	}

	sum := analysis.Summarize(xs)
	iqr, err := plotter.NewLine(plotter.XYs{{X: 0, Y: sum.Q25}, {X: 0, Y: sum.Q75}})
	if err != nil {
		return nil, fmt.Errorf("violin box: %w", err)
	}
	iqr.Width = vg.Points(4)
	iqr.Color = color.Gray{Y: 60}
	med, err := plotter.NewScatter(plotter.XYs{{X: 0, Y: sum.Q50}})
	if err != nil {
		return nil, fmt.Errorf("violin median: %w", err)
	}
	med.GlyphStyle.Color = color.White
	p.Add(iqr, med)
	p.NominalX(tick)
	p.X.Min, p.X.Max = -0.5, 0.5
	return p, nil
}

// ViolinOutline returns the closed outline of a density mirrored around loc,
// scaled so the widest point spans halfWidth on each side. It returns nil
// when the bandwidth is undefined (fewer than two distinct values).
func ViolinOutline(sorted []float64, loc, halfWidth float64, points int) plotter.XYs {
	grid, dens := KDE(sorted, points)
	if len(grid) == 0 {
		return nil
	}
	peak := 0.0
	for _, d := range dens {
		peak = math.Max(peak, d)
	}
	if peak == 0 {
		return nil
	}
	out := make(plotter.XYs, 0, 2*len(grid))
	for i := range grid {
		out = append(out, plotter.XY{X: loc + dens[i]/peak*halfWidth, Y: grid[i]})
	}
	for i := len(grid) - 1; i >= 0; i-- {
		out = append(out, plotter.XY{X: loc - dens[i]/peak*halfWidth, Y: grid[i]})
	}
	return out
}

// KDE evaluates a Gaussian kernel density estimate with Scott's bandwidth
// (std * n^(-1/5)) on points evenly spaced over [min-2h, max+2h].
func KDE(vals []float64, points int) (grid, density []float64) {
	xs := finite(vals)
	if len(xs) < 2 || points < 2 {
		return nil, nil
	}
	_, std := analysis.MeanStd(xs)
	if !(std > 0) || math.IsInf(std, 0) {
		return nil, nil
	}
	bw := std * math.Pow(float64(len(xs)), -0.2)
	lo, hi := xs[0], xs[0]
	for _, v := range xs {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	lo -= 2 * bw
	hi += 2 * bw
	step := (hi - lo) / float64(points-1)
	norm := 1 / (float64(len(xs)) * bw * math.Sqrt(2*math.Pi))
	grid = make([]float64, points)
	density = make([]float64, points)
	for i := range grid {
		y := lo + float64(i)*step
		grid[i] = y
		var sum float64
		for _, v := range xs {
			u := (y - v) / bw
			sum += math.Exp(-0.5 * u * u)
		}
		density[i] = sum * norm
	}
	return grid, density
}

func finite(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}
