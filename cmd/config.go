package cmd

import (
	"fmt"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/catlens/internal/config"
	"github.com/KaramelBytes/catlens/internal/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set CatLens configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		b, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Set a config value and save to disk. Lookup table entries are set with
dotted keys, e.g. "category_labels.4 Urgent" or "category_priorities.6104 2".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		c := cfg.Clone()
		if err := setKey(c, key, val); err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		cfg = c
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func setKey(c *cfgpkg.Global, key, val string) error {
	if id, ok := strings.CutPrefix(key, "category_labels."); ok {
		if _, err := strconv.ParseInt(id, 10, 64); err != nil {
			return fmt.Errorf("invalid category id in %s", key)
		}
		c.LabelMap[id] = val
		return nil
	}
	if id, ok := strings.CutPrefix(key, "category_priorities."); ok {
		if _, err := strconv.ParseInt(id, 10, 64); err != nil {
			return fmt.Errorf("invalid category id in %s", key)
		}
		rank, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for %s: %v", key, val)
		}
		c.PriorityMap[id] = rank
		return nil
	}
	switch key {
	case "train_path":
		c.TrainPath = val
	case "test_path":
		c.TestPath = val
	case "output_dir":
		c.OutputDir = val
	case "sorted_path":
		c.SortedPath = val
	case "delimiter":
		if _, err := table.ParseDelimiter(val); err != nil {
			return err
		}
		c.Delimiter = val
	case "category_column":
		c.CategoryColumn = val
	case "entity_column":
		c.EntityColumn = val
	case "measure_column":
		c.MeasureColumn = val
	case "label_column":
		c.LabelColumn = val
	case "priority_column":
		c.PriorityColumn = val
	case "bins":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for bins: %w", err)
		}
		c.Bins = i
	case "head_rows":
		i, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid int for head_rows: %w", err)
		}
		c.HeadRows = i
	case "z_threshold":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid float for z_threshold: %w", err)
		}
		c.ZThreshold = f
	case "fail_fast":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid bool for fail_fast: %w", err)
		}
		c.FailFast = b
	case "log_format":
		switch val {
		case "console", "json":
			c.LogFormat = val
		default:
			return fmt.Errorf("invalid log_format: %s (use console or json)", val)
		}
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}
