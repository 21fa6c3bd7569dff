package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/KaramelBytes/catlens/internal/plot"
	"github.com/KaramelBytes/catlens/internal/table"
	"github.com/stretchr/testify/require"
)

type fakeRenderer struct {
	failOn string
	seen   []string
}

func (f *fakeRenderer) RenderCategory(c plot.Category) ([]string, error) {
	f.seen = append(f.seen, c.Key)
	if c.Key == f.failOn {
		return nil, errors.New("boom")
	}
	return []string{plot.FileName(plot.KindHistogram, c.Key)}, nil
}

func trainTable() *table.Table {
	rows := [][]string{}
	// category 2 first so the sort is observable
	for i := 0; i < 5; i++ {
		rows = append(rows, []string{"2", strconv.Itoa(100 + i), "7"})
	}
	for i := 0; i < 20; i++ {
		rows = append(rows, []string{"1", strconv.Itoa(i), "10"})
	}
	rows = append(rows, []string{"1", "20", "400"})
	rows = append(rows, []string{"", "21", "9"})
	return table.New([]string{"CATEGORY_ID", "ENTITY_ID", "ENTITY_LENGTH"}, rows)
}

func profileOpts(r Renderer) ProfileOptions {
	return ProfileOptions{
		Name:           "Train.csv",
		CategoryColumn: "CATEGORY_ID",
		MeasureColumn:  "ENTITY_LENGTH",
		LabelColumn:    "CATEGORY_PRIORITY",
		Labels:         map[int64]string{1: "High", 2: "Medium", 3: "Low"},
		ZThreshold:     3,
		Renderer:       r,
	}
}

func TestProfile(t *testing.T) {
	r := &fakeRenderer{}
	var out bytes.Buffer
	opt := profileOpts(r)
	opt.Out = &out
	in := trainTable()
	res, err := Profile(in, opt)
	require.NoError(t, err)
	require.NoError(t, res.Err())

	require.Equal(t, []string{"1", "2"}, r.seen, "categories in ascending order")
	rep := res.Report
	require.Len(t, rep.Groups, 2)
	require.Equal(t, "High", rep.Groups[0].Label)
	require.Equal(t, 21, rep.Groups[0].Rows)
	require.Len(t, rep.Groups[0].Outliers, 1, "the 400 row is an outlier within category 1")
	require.Equal(t, "20", rep.Groups[0].Outliers[0][1])
	require.Empty(t, rep.Groups[1].Outliers, "identical values flag nothing")
	require.Equal(t, []string{"1 rows without CATEGORY_ID were not grouped"}, rep.Warnings)

	ids := col(t, res.Table, "CATEGORY_ID")
	require.Equal(t, "1", ids[0])
	require.Equal(t, "", ids[len(ids)-1])
	require.True(t, res.Table.Has("CATEGORY_PRIORITY"))
	require.False(t, in.Has("CATEGORY_PRIORITY"), "input table untouched")

	require.Contains(t, out.String(), "[CATEGORY: 1 (HIGH)]")
	require.Contains(t, out.String(), "[CATEGORY: 2 (MEDIUM)]")

	require.Len(t, res.Manifest.Categories, 2)
	require.Equal(t, ManifestEntry{Category: "1", Label: "High", Rows: 21, Outliers: 1, Plots: []string{"histogram_category_1.png"}}, res.Manifest.Categories[0])
}

func TestProfile_IsolatesCategoryFailures(t *testing.T) {
	r := &fakeRenderer{failOn: "1"}
	res, err := Profile(trainTable(), profileOpts(r))
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2"}, r.seen, "later categories still run")
	require.Len(t, res.Report.Groups, 1)
	require.Len(t, res.Report.Skipped, 1)
	require.Equal(t, "1", res.Report.Skipped[0].Key)
	require.Contains(t, res.Report.Skipped[0].Reason, "boom")
	require.Equal(t, "render plots: boom", res.Manifest.Categories[0].Error)

	err = res.Err()
	require.True(t, errors.Is(err, ErrSkipped))
	require.Contains(t, err.Error(), "category 1: render plots: boom")
	require.Contains(t, res.Report.Markdown(), "[SKIPPED CATEGORIES]")
}

func TestProfile_FailFast(t *testing.T) {
	r := &fakeRenderer{failOn: "1"}
	opt := profileOpts(r)
	opt.FailFast = true
	_, err := Profile(trainTable(), opt)
	require.ErrorContains(t, err, "category 1")
	require.Equal(t, []string{"1"}, r.seen)
}

func TestProfile_MissingMeasureColumn(t *testing.T) {
	in := table.New([]string{"CATEGORY_ID"}, [][]string{{"1"}})
	_, err := Profile(in, profileOpts(nil))
	require.True(t, errors.Is(err, table.ErrMissingColumn))
}

func TestRunProfile_WritesPlotsAndManifest(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "Train.csv")
	var b strings.Builder
	b.WriteString("CATEGORY_ID,ENTITY_ID,ENTITY_LENGTH\n")
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, "%d,%d,%d\n", 1+i%2, i, 10+i*i)
	}
	require.NoError(t, os.WriteFile(in, []byte(b.String()), 0o644))

	outDir := filepath.Join(dir, "EDA_Plots")
	report := filepath.Join(dir, "report.md")
	opt := profileOpts(plot.NewRenderer(outDir))
	res, err := RunProfile(in, 0, outDir, report, opt)
	require.NoError(t, err)
	require.NoError(t, res.Err())

	for _, key := range []string{"1", "2"} {
		for _, kind := range []string{plot.KindHistogram, plot.BoxplotKind("ENTITY_LENGTH"), plot.KindCorrelation, plot.KindRelBoxplot, plot.KindRelViolin} {
			_, err := os.Stat(filepath.Join(outDir, plot.FileName(kind, key)))
			require.NoError(t, err)
		}
	}
	m, err := ReadManifest(filepath.Join(outDir, ManifestFile))
	require.NoError(t, err)
	require.Equal(t, "Train.csv", m.Source)
	require.Len(t, m.Categories, 2)
	require.Len(t, m.Categories[1].Plots, 5)

	md, err := os.ReadFile(report)
	require.NoError(t, err)
	require.Contains(t, string(md), "[DATASET PROFILE]")
	require.Contains(t, string(md), "File: Train.csv")

	first, err := os.ReadFile(filepath.Join(outDir, ManifestFile))
	require.NoError(t, err)
	_, err = RunProfile(in, 0, outDir, "", opt)
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(outDir, ManifestFile))
	require.NoError(t, err)
	require.Equal(t, first, second, "rerun overwrites with identical manifest")
}

func TestRunProfile_MissingInput(t *testing.T) {
	_, err := RunProfile(filepath.Join(t.TempDir(), "Train.csv"), 0, t.TempDir(), "", profileOpts(nil))
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestProfile_SkippedCategoryKeepsStatistics(t *testing.T) {
	r := &fakeRenderer{failOn: "1"}
	var out bytes.Buffer
	opt := profileOpts(r)
	opt.Out = &out
	res, err := Profile(trainTable(), opt)
	require.NoError(t, err)
	require.Error(t, res.Err())

	require.Contains(t, out.String(), "[CATEGORY: 1 (HIGH)]")
	require.Contains(t, out.String(), "[SUMMARY STATISTICS FOR CATEGORY 1]")
	require.Contains(t, out.String(), "[OUTLIERS DETECTED IN CATEGORY 1]")

	skipped := res.Report.Skipped[0]
	require.NotNil(t, skipped.Partial)
	require.Len(t, skipped.Partial.Outliers, 1)
	require.Equal(t, 1, res.Manifest.Categories[0].Outliers)
	require.Contains(t, res.Report.Markdown(), "[SUMMARY STATISTICS FOR CATEGORY 1]")
}

func TestProfile_AllMissingMeasurementStillReported(t *testing.T) {
	in := table.New([]string{"CATEGORY_ID", "ENTITY_ID", "ENTITY_LENGTH"}, [][]string{
		{"1", "1", "4"}, {"1", "2", "6"}, {"2", "3", ""}, {"2", "4", ""},
	})
	var out bytes.Buffer
	opt := profileOpts(plot.NewRenderer(t.TempDir()))
	opt.Out = &out
	res, err := Profile(in, opt)
	require.NoError(t, err)
	require.Len(t, res.Report.Skipped, 1)
	require.Equal(t, "2", res.Report.Skipped[0].Key)
	require.ErrorIs(t, res.Err(), ErrSkipped)
	require.Contains(t, out.String(), "[SUMMARY STATISTICS FOR CATEGORY 2]")
	require.Contains(t, out.String(), "[MISSING VALUES IN CATEGORY 2]")
}
