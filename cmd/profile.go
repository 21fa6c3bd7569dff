package cmd

import (
	"fmt"
	"os"

	"github.com/KaramelBytes/catlens/internal/pipeline"
	"github.com/KaramelBytes/catlens/internal/plot"
	"github.com/KaramelBytes/catlens/internal/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	proOutputDir   string
	proReportPath  string
	proDelimiter   string
	proCategoryCol string
	proMeasureCol  string
	proBins        int
	proZThreshold  float64
	proFailFast    bool
	proNoPlots     bool
)

var profileCmd = &cobra.Command{
	Use:   "profile [file]",
	Short: "Profile a dataset per category: statistics, outliers and plots",
	Long: `Profile labels each row with its category priority, sorts by category,
standardizes the measurement column and prints a statistics report for every
category. Plots and a manifest are written to the output directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := cfg.Clone()
		f := cmd.Flags()
		if f.Changed("output-dir") {
			c.OutputDir = proOutputDir
		}
		if f.Changed("delimiter") {
			c.Delimiter = proDelimiter
		}
		if f.Changed("category-col") {
			c.CategoryColumn = proCategoryCol
		}
		if f.Changed("measure-col") {
			c.MeasureColumn = proMeasureCol
		}
		if f.Changed("bins") {
			c.Bins = proBins
		}
		if f.Changed("z-threshold") {
			c.ZThreshold = proZThreshold
		}
		if f.Changed("fail-fast") {
			c.FailFast = proFailFast
		}
		if err := c.Validate(); err != nil {
			return err
		}
		path := c.TrainPath
		if len(args) == 1 {
			path = args[0]
		}
		delim, err := table.ParseDelimiter(c.Delimiter)
		if err != nil {
			return err
		}
		labels, err := c.CategoryLabels()
		if err != nil {
			return err
		}

		opt := pipeline.ProfileOptions{
			CategoryColumn: c.CategoryColumn,
			MeasureColumn:  c.MeasureColumn,
			LabelColumn:    c.LabelColumn,
			Labels:         labels,
			ZThreshold:     c.ZThreshold,
			FailFast:       c.FailFast,
			Out:            cmd.OutOrStdout(),
			Logger:         logger,
		}
		if !proNoPlots {
			r := plot.NewRenderer(c.OutputDir)
			r.Bins = c.Bins
			opt.Renderer = r
		}
		res, err := pipeline.RunProfile(path, delim, c.OutputDir, proReportPath, opt)
		if err != nil {
			return err
		}
		for _, w := range res.Report.Warnings {
			fmt.Fprintf(os.Stderr, "⚠ Warning: %s\n", w)
		}
		if err := res.Err(); err != nil {
			for _, s := range res.Report.Skipped {
				logger.Warn("category skipped", zap.String("category", s.Key), zap.String("reason", s.Reason))
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Analysis complete for all categories! Plots saved in %s\n", c.OutputDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVar(&proOutputDir, "output-dir", "", "directory for plots and manifest (default from config: EDA_Plots)")
	profileCmd.Flags().StringVar(&proReportPath, "report", "", "optional path to write the full report (Markdown)")
	profileCmd.Flags().StringVar(&proDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | 'pipe' (auto by extension if omitted)")
	profileCmd.Flags().StringVar(&proCategoryCol, "category-col", "", "category id column (default from config)")
	profileCmd.Flags().StringVar(&proMeasureCol, "measure-col", "", "measurement column to standardize and plot (default from config)")
	profileCmd.Flags().IntVar(&proBins, "bins", 30, "histogram bins")
	profileCmd.Flags().Float64Var(&proZThreshold, "z-threshold", 3, "|z| threshold for outliers")
	profileCmd.Flags().BoolVar(&proFailFast, "fail-fast", false, "abort on the first failing category instead of skipping it")
	profileCmd.Flags().BoolVar(&proNoPlots, "no-plots", false, "skip plot rendering")
}
