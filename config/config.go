// Package config holds the settings used to build a label loader from the
// command line. A config file may be JSON or YAML; flags set on the command
// line take precedence over it.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Noofbiz/openbot/datasets"
)

// Config describes where the driving logs live and what to do with them.
type Config struct {
	// DataDir is the base directory holding one folder per dataset.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Datasets are read in order; labels from later datasets win on duplicate frames.
	Datasets []string `json:"datasets" yaml:"datasets"`

	// LabelScale divides throttle and steering. Default 255.
	LabelScale float32 `json:"label_scale" yaml:"label_scale"`

	// PlotDir receives label plots. Empty disables plotting.
	PlotDir string `json:"plot_dir,omitempty" yaml:"plot_dir,omitempty"`

	// Queries are frame keys to look up and print after loading.
	Queries []string `json:"queries,omitempty" yaml:"queries,omitempty"`

	// Progress shows a progress bar while session logs are read.
	Progress bool `json:"progress" yaml:"progress"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		DataDir:    "dataset",
		Datasets:   []string{"train_data"},
		LabelScale: datasets.DefaultLabelScale,
		Progress:   true,
	}
}

// Load reads a config file on top of Default. Files ending in .yaml or .yml
// are decoded as YAML, everything else as JSON.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, errors.New("empty path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "failed to parse config %s", path)
	}
	return cfg, nil
}

// Validate reports the first setting that would make loading fail early.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("data_dir is required")
	}
	if len(c.Datasets) == 0 {
		return errors.New("at least one dataset is required")
	}
	for i, ds := range c.Datasets {
		if strings.TrimSpace(ds) == "" {
			return errors.Errorf("dataset %d has an empty name", i)
		}
	}
	if !(c.LabelScale > 0) {
		return errors.Wrapf(datasets.ErrInvalidScale, "label_scale %v", c.LabelScale)
	}
	return nil
}

// LoaderOptions returns the datasets options matching this config.
func (c Config) LoaderOptions() []datasets.LoaderOption {
	return []datasets.LoaderOption{datasets.WithLabelScale(c.LabelScale)}
}

// SplitList splits a comma separated flag value, dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
