package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Inputs and outputs
	TrainPath  string `mapstructure:"train_path" yaml:"train_path"`
	TestPath   string `mapstructure:"test_path" yaml:"test_path"`
	OutputDir  string `mapstructure:"output_dir" yaml:"output_dir"`
	SortedPath string `mapstructure:"sorted_path" yaml:"sorted_path"`
	Delimiter  string `mapstructure:"delimiter" yaml:"delimiter"`

	// Column names
	CategoryColumn string `mapstructure:"category_column" yaml:"category_column"`
	EntityColumn   string `mapstructure:"entity_column" yaml:"entity_column"`
	MeasureColumn  string `mapstructure:"measure_column" yaml:"measure_column"`
	LabelColumn    string `mapstructure:"label_column" yaml:"label_column"`
	PriorityColumn string `mapstructure:"priority_column" yaml:"priority_column"`

	// Profiling
	Bins       int     `mapstructure:"bins" yaml:"bins"`
	ZThreshold float64 `mapstructure:"z_threshold" yaml:"z_threshold"`
	FailFast   bool    `mapstructure:"fail_fast" yaml:"fail_fast"`

	// Reordering
	HeadRows int `mapstructure:"head_rows" yaml:"head_rows"`

	// Lookup tables keyed by category id. YAML map keys are strings, so the
	// ids are parsed by CategoryLabels and PriorityTable.
	LabelMap    map[string]string `mapstructure:"category_labels" yaml:"category_labels"`
	PriorityMap map[string]int    `mapstructure:"category_priorities" yaml:"category_priorities"`

	// Logging
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// DefaultLabels is the category label table used when none is configured.
func DefaultLabels() map[string]string {
	return map[string]string{"1": "High", "2": "Medium", "3": "Low"}
}

// DefaultPriorities is the priority table used when none is configured.
// Lower rank sorts first.
func DefaultPriorities() map[string]int {
	return map[string]int{"30": 1, "112": 2, "2201": 3, "6104": 4, "8360": 5}
}

// Default returns the configuration with every default applied and no
// file or environment read.
func Default() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	c.applyTableDefaults()
	return &c
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("train_path", "Train.csv")
	v.SetDefault("test_path", "Test.csv")
	v.SetDefault("output_dir", "EDA_Plots")
	v.SetDefault("sorted_path", "Sorted_Train.csv")
	v.SetDefault("delimiter", "")
	v.SetDefault("category_column", "CATEGORY_ID")
	v.SetDefault("entity_column", "ENTITY_ID")
	v.SetDefault("measure_column", "ENTITY_LENGTH")
	v.SetDefault("label_column", "CATEGORY_PRIORITY")
	v.SetDefault("priority_column", "PRIORITY")
	v.SetDefault("bins", 30)
	v.SetDefault("z_threshold", 3.0)
	v.SetDefault("fail_fast", false)
	v.SetDefault("head_rows", 5)
	v.SetDefault("log_format", "console")
}

// Lookup tables are not given viper defaults: viper deep-merges maps, so a
// configured table would be mixed with the default one.
func (c *Global) applyTableDefaults() {
	if len(c.LabelMap) == 0 {
		c.LabelMap = DefaultLabels()
	}
	if len(c.PriorityMap) == 0 {
		c.PriorityMap = DefaultPriorities()
	}
}

// Validate checks the configuration for values the pipelines cannot run with.
func (c *Global) Validate() error {
	if c.Bins <= 0 {
		return fmt.Errorf("bins must be positive, got %d", c.Bins)
	}
	if !(c.ZThreshold > 0) {
		return fmt.Errorf("z_threshold must be positive, got %v", c.ZThreshold)
	}
	if c.HeadRows < 0 {
		return fmt.Errorf("head_rows must not be negative, got %d", c.HeadRows)
	}
	cols := map[string]string{
		"category_column": c.CategoryColumn,
		"entity_column":   c.EntityColumn,
		"measure_column":  c.MeasureColumn,
		"label_column":    c.LabelColumn,
		"priority_column": c.PriorityColumn,
	}
	for _, k := range sortedKeys(cols) {
		if strings.TrimSpace(cols[k]) == "" {
			return fmt.Errorf("%s must not be empty", k)
		}
	}
	if _, err := c.CategoryLabels(); err != nil {
		return err
	}
	if _, err := c.PriorityTable(); err != nil {
		return err
	}
	return nil
}

// CategoryLabels returns the label table keyed by category id.
func (c *Global) CategoryLabels() (map[int64]string, error) {
	out := make(map[int64]string, len(c.LabelMap))
	for k, v := range c.LabelMap {
		id, err := strconv.ParseInt(strings.TrimSpace(k), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("category_labels: invalid category id %q", k)
		}
		out[id] = v
	}
	return out, nil
}

// PriorityTable returns the priority table keyed by category id.
func (c *Global) PriorityTable() (map[int64]int, error) {
	out := make(map[int64]int, len(c.PriorityMap))
	for k, v := range c.PriorityMap {
		id, err := strconv.ParseInt(strings.TrimSpace(k), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("category_priorities: invalid category id %q", k)
		}
		out[id] = v
	}
	return out, nil
}

// Clone returns a copy whose lookup tables can be changed independently.
func (c *Global) Clone() *Global {
	cp := *c
	cp.LabelMap = maps.Clone(c.LabelMap)
	cp.PriorityMap = maps.Clone(c.PriorityMap)
	return &cp
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.catlens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Command flags are applied by
// the caller on top of the result.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CATLENS")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	c.applyTableDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &c, nil
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".catlens"), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
