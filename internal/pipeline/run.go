package pipeline

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/KaramelBytes/catlens/internal/analysis"
	"github.com/KaramelBytes/catlens/internal/table"
	"github.com/KaramelBytes/catlens/internal/utils"
	"go.uber.org/zap"
)

// RunProfile reads inPath, profiles it and writes the manifest (and plots,
// through opt.Renderer) into outDir. A non-empty reportPath also receives
// the full Markdown report.
func RunProfile(inPath string, delim rune, outDir, reportPath string, opt ProfileOptions) (*ProfileResult, error) {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	t, err := table.ReadFile(inPath, delim)
	if err != nil {
		return nil, err
	}
	log.Info("loaded table", zap.String("file", inPath), zap.Int("rows", t.Len()), zap.Int("cols", len(t.Header)))
	if opt.Name == "" {
		opt.Name = filepath.Base(inPath)
	}
	if err := utils.EnsureDir(outDir); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	res, err := Profile(t, opt)
	if err != nil {
		return nil, err
	}
	path, err := WriteManifest(outDir, res.Manifest)
	if err != nil {
		return res, err
	}
	log.Debug("wrote manifest", zap.String("path", path))
	if reportPath != "" {
		if err := utils.SafeWriteFile(reportPath, []byte(res.Report.Markdown())); err != nil {
			return res, fmt.Errorf("write report: %w", err)
		}
		log.Info("wrote report", zap.String("path", reportPath))
	}
	return res, nil
}

// RunReorder reads inPath, reorders it and writes outPath, replacing any
// existing file. If head > 0 and out is non-nil a preview of the first head
// rows is printed.
func RunReorder(inPath, outPath string, delim rune, head int, out io.Writer, opt ReorderOptions, log *zap.Logger) (*table.Table, error) {
	if log == nil {
		log = zap.NewNop()
	}
	t, err := table.ReadFile(inPath, delim)
	if err != nil {
		return nil, err
	}
	log.Info("loaded table", zap.String("file", inPath), zap.Int("rows", t.Len()))
	sorted, err := Reorder(t, opt)
	if err != nil {
		return nil, err
	}
	if err := sorted.WriteFile(outPath, delim); err != nil {
		return nil, fmt.Errorf("write %s: %w", outPath, err)
	}
	log.Info("wrote sorted table", zap.String("file", outPath), zap.Int("rows", sorted.Len()))
	if out != nil && head > 0 {
		n := head
		if n > sorted.Len() {
			n = sorted.Len()
		}
		if _, err := io.WriteString(out, analysis.SampleMarkdown(sorted.Header, sorted.Rows[:n])); err != nil {
			return sorted, fmt.Errorf("write preview: %w", err)
		}
	}
	return sorted, nil
}
