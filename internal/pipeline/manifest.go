package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/catlens/internal/utils"
	"gopkg.in/yaml.v3"
)

// ManifestFile is the name of the manifest written next to the plots.
const ManifestFile = "manifest.yaml"

// Manifest lists what a profile run produced. It holds no timestamps so
// identical inputs produce an identical file.
type Manifest struct {
	Source         string          `yaml:"source,omitempty"`
	CategoryColumn string          `yaml:"category_column"`
	MeasureColumn  string          `yaml:"measure_column"`
	Categories     []ManifestEntry `yaml:"categories"`
}

// ManifestEntry describes one category.
type ManifestEntry struct {
	Category string   `yaml:"category"`
	Label    string   `yaml:"label,omitempty"`
	Rows     int      `yaml:"rows"`
	Outliers int      `yaml:"outliers"`
	Plots    []string `yaml:"plots,omitempty"`
	Error    string   `yaml:"error,omitempty"`
}

// WriteManifest writes m as YAML into dir.
func WriteManifest(dir string, m *Manifest) (string, error) {
	b, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(dir, ManifestFile)
	if err := utils.SafeWriteFile(path, b); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}
