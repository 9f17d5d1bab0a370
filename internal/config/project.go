package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfig is the parsed veld.yaml. Every field is optional; flags on
// the command line override the file.
type ProjectConfig struct {
	// Output is the directory compiled artifacts are written to.
	Output string `yaml:"output"`
	// Color forces diagnostic coloring on or off ("auto" when empty).
	Color string `yaml:"color"`
	// Cache disables the build cache when false.
	Cache *bool `yaml:"cache"`
}

// DefaultProjectConfig is what an absent or empty veld.yaml means.
func DefaultProjectConfig() ProjectConfig {
	return ProjectConfig{Color: "auto"}
}

// CacheEnabled folds the optional cache flag to its default.
func (c ProjectConfig) CacheEnabled() bool {
	return c.Cache == nil || *c.Cache
}

// LoadProject reads veld.yaml from the directory of the given source file,
// walking up to the filesystem root. A missing file is not an error.
func LoadProject(sourcePath string) (ProjectConfig, error) {
	cfg := DefaultProjectConfig()

	dir, err := filepath.Abs(filepath.Dir(sourcePath))
	if err != nil {
		return cfg, err
	}
	for {
		data, err := os.ReadFile(filepath.Join(dir, ProjectFileName))
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
			if cfg.Color == "" {
				cfg.Color = "auto"
			}
			return cfg, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return cfg, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return cfg, nil
		}
		dir = parent
	}
}
