package analysis

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// Report is a markdown-friendly per-category profile of a dataset.
type Report struct {
	Name     string
	Rows     int
	Groups   []GroupReport
	Skipped  []Skipped
	Warnings []string
}

// GroupReport captures statistics of one category subset.
type GroupReport struct {
	Key     string
	Label   string
	Rows    int
	Summary []Summary
	Types   []ColumnType
	Missing []MissingCount
	Corr    *CorrMatrix
	// Outlier rows flagged by |z| > OutlierThreshold on OutlierColumn.
	OutlierColumn    string
	OutlierThreshold float64
	OutlierHeader    []string
	Outliers         [][]string
	Plots            []string
}

// Skipped names a category whose analysis failed and why.
type Skipped struct {
	Key    string
	Reason string
	// Partial holds the statistics computed before the failure, if any.
	Partial *GroupReport
}

// Markdown renders the whole report.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET PROFILE]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Categories: %d\n", len(r.Groups)+len(r.Skipped)))
	for i := range r.Groups {
		b.WriteString("\n")
		b.WriteString(r.Groups[i].Markdown())
	}
	if len(r.Skipped) > 0 {
		b.WriteString("\n[SKIPPED CATEGORIES]\n")
		for _, s := range r.Skipped {
			b.WriteString(fmt.Sprintf("- %s: %s\n", s.Key, safeVal(s.Reason)))
		}
		for _, s := range r.Skipped {
			if s.Partial != nil {
				b.WriteString("\n")
				b.WriteString(s.Partial.Markdown())
			}
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Markdown renders one category section.
func (g *GroupReport) Markdown() string {
	var b strings.Builder
	title := fmt.Sprintf("Category: %s", g.Key)
	if g.Label != "" {
		title += fmt.Sprintf(" (%s)", g.Label)
	}
	b.WriteString(fmt.Sprintf("[%s]\n", strings.ToUpper(title)))
	b.WriteString(fmt.Sprintf("Rows: %d\n", g.Rows))

	if len(g.Summary) > 0 {
		b.WriteString(fmt.Sprintf("\n[SUMMARY STATISTICS FOR CATEGORY %s]\n", g.Key))
		header := []string{"stat"}
		for _, s := range g.Summary {
			header = append(header, safeName(s.Name))
		}
		rows := [][]string{}
		stats := []struct {
			name string
			get  func(Summary) float64
		}{
			{"count", func(s Summary) float64 { return float64(s.Count) }},
			{"mean", func(s Summary) float64 { return s.Mean }},
			{"std", func(s Summary) float64 { return s.Std }},
			{"min", func(s Summary) float64 { return s.Min }},
			{"25%", func(s Summary) float64 { return s.Q25 }},
			{"50%", func(s Summary) float64 { return s.Q50 }},
			{"75%", func(s Summary) float64 { return s.Q75 }},
			{"max", func(s Summary) float64 { return s.Max }},
		}
		for _, st := range stats {
			row := []string{st.name}
			for _, s := range g.Summary {
				row = append(row, FormatFloat(st.get(s)))
			}
			rows = append(rows, row)
		}
		writeTable(&b, header, rows)
	}

	if len(g.Types) > 0 {
		b.WriteString(fmt.Sprintf("\n[DATA TYPES FOR CATEGORY %s]\n", g.Key))
		for _, ct := range g.Types {
			b.WriteString(fmt.Sprintf("- %s: %s\n", safeName(ct.Name), ct.Kind))
		}
	}
	if len(g.Missing) > 0 {
		b.WriteString(fmt.Sprintf("\n[MISSING VALUES IN CATEGORY %s]\n", g.Key))
		for _, m := range g.Missing {
			b.WriteString(fmt.Sprintf("- %s: %d\n", safeName(m.Name), m.Missing))
		}
	}
	if g.Corr != nil && len(g.Corr.Columns) > 0 {
		b.WriteString(fmt.Sprintf("\n[CORRELATION MATRIX FOR CATEGORY %s]\n", g.Key))
		header := append([]string{""}, g.Corr.Columns...)
		rows := make([][]string, len(g.Corr.Columns))
		for i, name := range g.Corr.Columns {
			row := []string{name}
			for _, v := range g.Corr.Values[i] {
				if math.IsNaN(v) {
					row = append(row, "NaN")
					continue
				}
				row = append(row, fmt.Sprintf("%.3f", v))
			}
			rows[i] = row
		}
		writeTable(&b, header, rows)
	}

	b.WriteString(fmt.Sprintf("\n[OUTLIERS DETECTED IN CATEGORY %s]\n", g.Key))
	if g.OutlierColumn != "" {
		b.WriteString(fmt.Sprintf("Rule: |z(%s)| > %s\n", g.OutlierColumn, FormatFloat(g.OutlierThreshold)))
	}
	if len(g.Outliers) == 0 {
		b.WriteString("(none)\n")
	} else {
		writeTable(&b, g.OutlierHeader, g.Outliers)
	}

	if len(g.Plots) > 0 {
		b.WriteString(fmt.Sprintf("\n[PLOTS FOR CATEGORY %s]\n", g.Key))
		for _, p := range g.Plots {
			b.WriteString("- ")
			b.WriteString(p)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// FormatFloat renders a statistic compactly; NaN prints as "NaN".
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.6g", v)
}

// SampleMarkdown renders a header plus rows as a markdown table, used for
// previews of sorted output.
func SampleMarkdown(header []string, rows [][]string) string {
	var b strings.Builder
	writeTable(&b, header, rows)
	return b.String()
}

func writeTable(b *strings.Builder, header []string, rows [][]string) {
	b.WriteString("| ")
	for i, h := range header {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(safeVal(h))
	}
	b.WriteString(" |\n")
	b.WriteString("| ")
	for i := range header {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString("---")
	}
	b.WriteString(" |\n")
	for _, row := range rows {
		b.WriteString("| ")
		for i := range header {
			if i > 0 {
				b.WriteString(" | ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			if utf8.RuneCountInString(val) > 80 {
				val = string([]rune(val)[:77]) + "..."
			}
			b.WriteString(safeVal(val))
		}
		b.WriteString(" |\n")
	}
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}
func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
