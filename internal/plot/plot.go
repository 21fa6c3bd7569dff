// Package plot renders the per-category PNG artifacts of a dataset profile
// with gonum/plot.
package plot

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/catlens/internal/analysis"
	"github.com/KaramelBytes/catlens/internal/utils"
	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// ErrNoData is returned when a plot has no finite values to draw.
var ErrNoData = errors.New("no values to plot")

// Plot kinds. Relationship plots use the "_relationship" file name infix.
const (
	KindHistogram    = "histogram"
	KindBoxplot      = "boxplot"
	KindCorrelation  = "correlation_matrix"
	KindRelBoxplot   = "boxplot_relationship"
	KindRelViolin    = "violinplot_relationship"
	defaultBins      = 30
	defaultWidthInch = 8
	defaultHeightIn  = 6
)

// FileName builds "{kind}_category_{key}.png".
func FileName(kind, key string) string {
	return fmt.Sprintf("%s_category_%s.png", kind, key)
}

// BoxplotKind names the single-column boxplot after the column, e.g.
// "boxplot_entity_length".
func BoxplotKind(column string) string {
	return KindBoxplot + "_" + strings.ToLower(column)
}

// Renderer writes plot files into Dir.
type Renderer struct {
	Dir    string
	Bins   int
	Width  vg.Length
	Height vg.Length
}

// NewRenderer returns a renderer with 30 bins and an 8x6 inch canvas.
func NewRenderer(dir string) *Renderer {
	return &Renderer{Dir: dir, Bins: defaultBins, Width: defaultWidthInch * vg.Inch, Height: defaultHeightIn * vg.Inch}
}

// Category describes one category subset to draw.
type Category struct {
	// Key is the category value as written in file names.
	Key string
	// GroupColumn is the category column name, used as the x label of
	// relationship plots.
	GroupColumn string
	// Column is the measurement column.
	Column string
	Values []float64
	Corr   *analysis.CorrMatrix
}

// RenderCategory draws all five plots of one category and returns the file
// names written, relative to Dir. It stops at the first failure.
func (r *Renderer) RenderCategory(c Category) ([]string, error) {
	if err := utils.EnsureDir(r.Dir); err != nil {
		return nil, fmt.Errorf("create plot dir: %w", err)
	}
	bins := r.Bins
	if bins <= 0 {
		bins = defaultBins
	}
	steps := []struct {
		kind string
		draw func() (*gplot.Plot, error)
	}{
		{KindHistogram, func() (*gplot.Plot, error) {
			return Histogram(fmt.Sprintf("Histogram of %s (Category %s)", c.Column, c.Key), c.Column, c.Values, bins)
		}},
		{BoxplotKind(c.Column), func() (*gplot.Plot, error) {
			return BoxPlot(fmt.Sprintf("Boxplot for %s (Category %s)", c.Column, c.Key), c.Column, "", c.Column, c.Values)
		}},
		{KindCorrelation, func() (*gplot.Plot, error) {
			return Heatmap(fmt.Sprintf("Correlation Matrix for Category %s", c.Key), c.Corr)
		}},
		{KindRelBoxplot, func() (*gplot.Plot, error) {
			return BoxPlot(fmt.Sprintf("Boxplot: %s vs %s (Category %s)", c.Column, c.GroupColumn, c.Key), c.Key, c.GroupColumn, c.Column, c.Values)
		}},
		{KindRelViolin, func() (*gplot.Plot, error) {
			return Violin(fmt.Sprintf("Violin Plot: %s vs %s (Category %s)", c.Column, c.GroupColumn, c.Key), c.Key, c.GroupColumn, c.Column, c.Values)
		}},
	}
	var files []string
	for _, s := range steps {
		p, err := s.draw()
		if err != nil {
			return files, fmt.Errorf("%s: %w", s.kind, err)
		}
		name := FileName(s.kind, c.Key)
		if err := r.save(p, name); err != nil {
			return files, fmt.Errorf("%s: %w", s.kind, err)
		}
		files = append(files, name)
	}
	return files, nil
}

// save writes through a temp file so a failed render never leaves a
// truncated PNG behind.
func (r *Renderer) save(p *gplot.Plot, name string) error {
	w, err := p.WriterTo(r.Width, r.Height, "png")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return utils.SafeWriteFile(filepath.Join(r.Dir, name), buf.Bytes())
}
