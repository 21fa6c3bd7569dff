package pipeline

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/KaramelBytes/catlens/internal/analysis"
	"github.com/KaramelBytes/catlens/internal/plot"
	"github.com/KaramelBytes/catlens/internal/table"
	"go.uber.org/zap"
)

// ErrSkipped reports that one or more categories could not be analyzed.
var ErrSkipped = errors.New("categories skipped")

// Renderer draws the plots of one category and returns the file names.
type Renderer interface {
	RenderCategory(c plot.Category) ([]string, error)
}

// ProfileOptions controls the per-category profile.
type ProfileOptions struct {
	Name           string
	CategoryColumn string
	MeasureColumn  string
	LabelColumn    string
	Labels         map[int64]string
	ZThreshold     float64
	// FailFast aborts on the first category failure instead of recording
	// it as skipped.
	FailFast bool
	// Renderer draws plots; nil skips plotting.
	Renderer Renderer
	// Out receives each category section as soon as it is computed.
	Out    io.Writer
	Logger *zap.Logger
}

// ProfileResult is the outcome of a profile run.
type ProfileResult struct {
	Report   *analysis.Report
	Manifest *Manifest
	// Table is the labeled, sorted and standardized table the groups were
	// taken from.
	Table *table.Table
}

// Err joins the failures of all skipped categories, or returns nil.
func (r *ProfileResult) Err() error {
	if r == nil || r.Report == nil || len(r.Report.Skipped) == 0 {
		return nil
	}
	errs := []error{fmt.Errorf("%w: %d of %d", ErrSkipped, len(r.Report.Skipped), len(r.Report.Skipped)+len(r.Report.Groups))}
	for _, s := range r.Report.Skipped {
		errs = append(errs, fmt.Errorf("category %s: %s", s.Key, s.Reason))
	}
	return errors.Join(errs...)
}

// Profile labels, sorts and standardizes a copy of in, then analyzes every
// category in ascending id order. Rows without a category id are excluded
// from grouping and noted as a warning.
func Profile(in *table.Table, opt ProfileOptions) (*ProfileResult, error) {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	t := in.Clone()
	if err := LabelCategories(t, opt.CategoryColumn, opt.LabelColumn, opt.Labels); err != nil {
		return nil, fmt.Errorf("label categories: %w", err)
	}
	if err := SortByCategory(t, opt.CategoryColumn); err != nil {
		return nil, fmt.Errorf("sort by category: %w", err)
	}
	if err := StandardizeColumn(t, opt.MeasureColumn); err != nil {
		return nil, fmt.Errorf("standardize: %w", err)
	}

	ids, err := t.Ints(opt.CategoryColumn)
	if err != nil {
		return nil, err
	}
	groups := map[int64][]int{}
	var keys []int64
	missing := 0
	for i, id := range ids {
		if !id.Valid {
			missing++
			continue
		}
		if _, ok := groups[id.V]; !ok {
			keys = append(keys, id.V)
		}
		groups[id.V] = append(groups[id.V], i)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	rep := &analysis.Report{Name: opt.Name, Rows: t.Len()}
	if missing > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%d rows without %s were not grouped", missing, opt.CategoryColumn))
		log.Warn("rows without category id", zap.Int("rows", missing), zap.String("column", opt.CategoryColumn))
	}
	man := &Manifest{Source: opt.Name, CategoryColumn: opt.CategoryColumn, MeasureColumn: opt.MeasureColumn}
	types := analysis.InferTypes(t)

	for _, id := range keys {
		key := strconv.FormatInt(id, 10)
		rows := groups[id]
		clog := log.With(zap.String("category", key), zap.Int("rows", len(rows)))
		g, err := analyzeGroup(t.Subset(rows), types, key, opt)
		entry := ManifestEntry{Category: key, Label: opt.Labels[id], Rows: len(rows)}
		if g != nil {
			g.Label = opt.Labels[id]
			entry.Outliers = len(g.Outliers)
			entry.Plots = g.Plots
			if opt.Out != nil {
				if _, werr := io.WriteString(opt.Out, "\n"+g.Markdown()); werr != nil {
					return nil, fmt.Errorf("write report: %w", werr)
				}
			}
		}
		if err != nil {
			if opt.FailFast {
				return nil, fmt.Errorf("category %s: %w", key, err)
			}
			clog.Warn("category skipped", zap.Error(err))
			rep.Skipped = append(rep.Skipped, analysis.Skipped{Key: key, Reason: err.Error(), Partial: g})
			entry.Error = err.Error()
			man.Categories = append(man.Categories, entry)
			continue
		}
		man.Categories = append(man.Categories, entry)
		rep.Groups = append(rep.Groups, *g)
		clog.Debug("category analyzed", zap.Int("outliers", len(g.Outliers)), zap.Int("plots", len(g.Plots)))
	}
	return &ProfileResult{Report: rep, Manifest: man, Table: t}, nil
}

// analyzeGroup computes the statistics of one category, then renders its
// plots. A render failure returns the statistics along with the error.
func analyzeGroup(sub *table.Table, types []analysis.ColumnType, key string, opt ProfileOptions) (*analysis.GroupReport, error) {
	numeric := analysis.NumericColumns(types)
	summary, err := analysis.Describe(sub, numeric)
	if err != nil {
		return nil, fmt.Errorf("describe: %w", err)
	}
	corr, err := analysis.Correlation(sub, numeric)
	if err != nil {
		return nil, fmt.Errorf("correlation: %w", err)
	}
	vals, err := sub.Floats(opt.MeasureColumn)
	if err != nil {
		return nil, err
	}
	g := &analysis.GroupReport{
		Key:              key,
		Rows:             sub.Len(),
		Summary:          summary,
		Types:            types,
		Missing:          analysis.MissingCounts(sub),
		Corr:             corr,
		OutlierColumn:    opt.MeasureColumn,
		OutlierThreshold: opt.ZThreshold,
		OutlierHeader:    sub.Header,
	}
	for _, i := range analysis.Outliers(vals, opt.ZThreshold) {
		g.Outliers = append(g.Outliers, sub.Rows[i])
	}
	if opt.Renderer != nil {
		files, err := opt.Renderer.RenderCategory(plot.Category{
			Key:         key,
			GroupColumn: opt.CategoryColumn,
			Column:      opt.MeasureColumn,
			Values:      vals,
			Corr:        corr,
		})
		g.Plots = files
		if err != nil {
			return g, fmt.Errorf("render plots: %w", err)
		}
	}
	return g, nil
}
