package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/catlens/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

// resetFlags clears values and Changed state that cobra keeps between
// Execute calls on the same command tree.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if fl.Value.Type() != "stringToInt" {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
	reoPriorities = nil
	cfgFile = ""
}

// execCmd runs the root command with args and returns stdout and the error.
func execCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

// isolate points HOME at a temp dir so no user config is read.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeTrain(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("CATEGORY_ID,ENTITY_ID,ENTITY_LENGTH,ENTITY_DESCRIPTION\n")
	for i := 0; i < 60; i++ {
		fmt.Fprintf(&b, "%d,%d,%d,item %d\n", 3-i%3, i, 20+(i*7)%11, i)
	}
	fmt.Fprintf(&b, "1,99,900,huge\n")
	path := filepath.Join(dir, "Train.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestCLI_Profile(t *testing.T) {
	home := isolate(t)
	train := writeTrain(t, home)
	outDir := filepath.Join(home, "EDA_Plots")
	report := filepath.Join(home, "report.md")

	out := runCmd(t, "profile", train, "--output-dir", outDir, "--report", report, "--bins", "10")
	require.Contains(t, out, "[CATEGORY: 1 (HIGH)]")
	require.Contains(t, out, "[CATEGORY: 3 (LOW)]")
	require.Contains(t, out, "[OUTLIERS DETECTED IN CATEGORY 1]")
	require.Contains(t, out, "✓ Analysis complete for all categories! Plots saved in "+outDir)
	require.Less(t, strings.Index(out, "[CATEGORY: 1 (HIGH)]"), strings.Index(out, "[CATEGORY: 2 (MEDIUM)]"))

	for _, name := range []string{
		"histogram_category_1.png",
		"boxplot_entity_length_category_2.png",
		"correlation_matrix_category_3.png",
		"boxplot_relationship_category_1.png",
		"violinplot_relationship_category_3.png",
	} {
		_, err := os.Stat(filepath.Join(outDir, name))
		require.NoError(t, err, name)
	}
	m, err := pipeline.ReadManifest(filepath.Join(outDir, pipeline.ManifestFile))
	require.NoError(t, err)
	require.Len(t, m.Categories, 3)
	require.Equal(t, 1, m.Categories[0].Outliers)

	md, err := os.ReadFile(report)
	require.NoError(t, err)
	require.Contains(t, string(md), "[DATASET PROFILE]")
}

func TestCLI_ProfileNoPlotsFromWorkingDir(t *testing.T) {
	home := isolate(t)
	writeTrain(t, home)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(home))
	defer os.Chdir(wd)

	out := runCmd(t, "profile", "--no-plots")
	require.Contains(t, out, "Plots saved in EDA_Plots")
	entries, err := os.ReadDir(filepath.Join(home, "EDA_Plots"))
	require.NoError(t, err)
	require.Len(t, entries, 1, "only the manifest")
}

func TestCLI_ProfileMissingInput(t *testing.T) {
	home := isolate(t)
	_, err := execCmd(t, "profile", filepath.Join(home, "nope.csv"), "--output-dir", filepath.Join(home, "out"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestCLI_ProfileMissingColumn(t *testing.T) {
	home := isolate(t)
	train := writeTrain(t, home)
	_, err := execCmd(t, "profile", train, "--no-plots", "--output-dir", filepath.Join(home, "out"), "--measure-col", "WIDTH")
	require.ErrorContains(t, err, "WIDTH")
}

func TestCLI_Reorder(t *testing.T) {
	home := isolate(t)
	in := filepath.Join(home, "Test.csv")
	require.NoError(t, os.WriteFile(in, []byte("CATEGORY_ID,ENTITY_ID\n8360,5\n30,1\n9999,2\n112,3\n"), 0o644))
	outPath := filepath.Join(home, "Sorted_Train.csv")

	out := runCmd(t, "reorder", in, "-o", outPath, "--head", "2")
	require.Contains(t, out, "| 30 | 1 |")
	require.Contains(t, out, "| 112 | 3 |")
	require.NotContains(t, out, "| 8360 | 5 |")
	require.Contains(t, out, "✓ Sorted 4 rows written to "+outPath)
	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, "CATEGORY_ID,ENTITY_ID\n30,1\n112,3\n8360,5\n9999,2\n", string(got))

	runCmd(t, "reorder", in, "-o", outPath, "--head", "0", "--priority", "112=1,9999=2")
	got, err = os.ReadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, "CATEGORY_ID,ENTITY_ID\n112,3\n9999,2\n30,1\n8360,5\n", string(got))
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home := isolate(t)
	runCmd(t, "config", "set", "bins", "12")
	runCmd(t, "config", "set", "category_labels.4", "Urgent")
	b, err := os.ReadFile(filepath.Join(home, ".catlens", "config.yaml"))
	require.NoError(t, err)
	require.Contains(t, string(b), "bins: 12")

	out := runCmd(t, "config", "show")
	require.Contains(t, out, "bins: 12")
	require.Contains(t, out, `"4": Urgent`)
	require.Contains(t, out, `"1": High`, "defaults kept next to the new label")

	_, err = execCmd(t, "config", "set", "bins", "0")
	require.Error(t, err)
	_, err = execCmd(t, "config", "set", "nope", "1")
	require.ErrorContains(t, err, "unknown key")
}

func TestCLI_ExplicitConfigMustExist(t *testing.T) {
	home := isolate(t)
	_, err := execCmd(t, "--config", filepath.Join(home, "missing.yaml"), "config", "show")
	require.Error(t, err)
}

func TestCLI_InvalidLogFormat(t *testing.T) {
	isolate(t)
	_, err := execCmd(t, "--log-format", "xml", "config", "show")
	require.Error(t, err)
}
