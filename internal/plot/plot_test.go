package plot

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/catlens/internal/analysis"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestFileName(t *testing.T) {
	require.Equal(t, "histogram_category_3.png", FileName(KindHistogram, "3"))
	require.Equal(t, "boxplot_entity_length_category_1.png", FileName(BoxplotKind("ENTITY_LENGTH"), "1"))
	require.Equal(t, "violinplot_relationship_category_2.png", FileName(KindRelViolin, "2"))
}

func TestBins(t *testing.T) {
	bins := Bins([]float64{0, 1, 2, 3, 10, math.NaN()}, 10)
	require.Len(t, bins, 10)
	require.Equal(t, 0.0, bins[0].Min)
	require.Equal(t, 10.0, bins[9].Max)
	var total float64
	for _, b := range bins {
		total += b.Weight
	}
	require.Equal(t, 5.0, total)
	require.Equal(t, 1.0, bins[9].Weight, "max value lands in the closed last bin")
}

func TestBins_ConstantAndEmpty(t *testing.T) {
	bins := Bins([]float64{4, 4, 4}, 30)
	require.Len(t, bins, 30)
	require.InDelta(t, 3.5, bins[0].Min, 1e-12)
	require.InDelta(t, 4.5, bins[29].Max, 1e-12)
	require.Nil(t, Bins(nil, 30))
	require.Nil(t, Bins([]float64{math.NaN()}, 30))
}

func TestKDE_IntegratesToAboutOne(t *testing.T) {
	vals := []float64{1, 2, 2.5, 3, 3.5, 4, 6}
	grid, dens := KDE(vals, 400)
	require.Len(t, grid, 400)
	var area float64
	for i := 1; i < len(grid); i++ {
		area += (grid[i] - grid[i-1]) * (dens[i] + dens[i-1]) / 2
	}
	// Truncating the tails at 2 bandwidths loses a little mass.
	require.InDelta(t, 1.0, area, 0.05)

	grid, dens = KDE([]float64{5, 5, 5}, 100)
	require.Nil(t, grid)
	require.Nil(t, dens)
}

func TestViolinOutline(t *testing.T) {
	out := ViolinOutline([]float64{1, 2, 3, 4}, 0, 0.4, 50)
	require.Len(t, out, 100)
	maxX := 0.0
	for _, p := range out {
		maxX = math.Max(maxX, math.Abs(p.X))
	}
	require.InDelta(t, 0.4, maxX, 1e-9)
	require.Nil(t, ViolinOutline([]float64{2, 2}, 0, 0.4, 50))
}

func TestRenderCategory_WritesFivePNGs(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "plots")
	r := NewRenderer(dir)
	corr := &analysis.CorrMatrix{
		Columns: []string{"ENTITY_ID", "ENTITY_LENGTH"},
		Values:  [][]float64{{1, 0.25}, {0.25, 1}},
	}
	files, err := r.RenderCategory(Category{
		Key:         "7",
		GroupColumn: "CATEGORY_ID",
		Column:      "ENTITY_LENGTH",
		Values:      []float64{-1.2, -0.3, 0, 0.4, 1.1, 2.5},
		Corr:        corr,
	})
	require.NoError(t, err)
	require.Equal(t, []string{
		"histogram_category_7.png",
		"boxplot_entity_length_category_7.png",
		"correlation_matrix_category_7.png",
		"boxplot_relationship_category_7.png",
		"violinplot_relationship_category_7.png",
	}, files)
	for _, f := range files {
		b, err := os.ReadFile(filepath.Join(dir, f))
		require.NoError(t, err)
		require.True(t, bytes.HasPrefix(b, pngMagic), "%s is not a PNG", f)
	}
}

func TestRenderCategory_ConstantValues(t *testing.T) {
	r := NewRenderer(t.TempDir())
	nan := math.NaN()
	files, err := r.RenderCategory(Category{
		Key:         "1",
		GroupColumn: "CATEGORY_ID",
		Column:      "ENTITY_LENGTH",
		Values:      []float64{0, 0, 0, 0, 0},
		Corr: &analysis.CorrMatrix{
			Columns: []string{"ENTITY_LENGTH"},
			Values:  [][]float64{{nan}},
		},
	})
	require.NoError(t, err)
	require.Len(t, files, 5)
}

func TestRenderCategory_NoData(t *testing.T) {
	r := NewRenderer(t.TempDir())
	_, err := r.RenderCategory(Category{Key: "9", Column: "ENTITY_LENGTH", Values: []float64{math.NaN()}})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNoData))
}
