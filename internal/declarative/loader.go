// Package declarative loads dataset definitions from YAML files so a
// deployment can check its semantic layer into version control and have it
// registered at startup.
package declarative

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// SupportedAPIVersion is the declarative document version this build reads.
const SupportedAPIVersion = "semlake/v1"

// KindNameDataset is the only document kind the loader accepts.
const KindNameDataset = "Dataset"

// DatasetDoc is one declarative dataset file.
type DatasetDoc struct {
	APIVersion string      `yaml:"apiVersion"`
	Kind       string      `yaml:"kind"`
	Name       string      `yaml:"name"`
	Spec       DatasetSpec `yaml:"spec"`
}

// DatasetSpec mirrors the JSON dataset definition shape in YAML.
type DatasetSpec struct {
	Measures       []MeasureSpec   `yaml:"measures" json:"measures,omitempty"`
	Dimensions     []DimensionSpec `yaml:"dimensions" json:"dimensions,omitempty"`
	TimeDimensions []DimensionSpec `yaml:"time_dimensions" json:"time_dimensions,omitempty"`
}

// MeasureSpec is one declared measure.
type MeasureSpec struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type,omitempty"`
	SQL  string `yaml:"sql" json:"sql"`
}

// DimensionSpec is one declared dimension or time dimension.
type DimensionSpec struct {
	Name string `yaml:"name" json:"name"`
	SQL  string `yaml:"sql" json:"sql"`
}

// Dataset is a loaded declarative dataset: its name plus the definition
// re-encoded as the canonical JSON registration payload.
type Dataset struct {
	Name       string
	Definition []byte
	Source     string
}

// LoadOptions configures YAML loading behavior.
type LoadOptions struct {
	AllowUnknownFields bool
}

// LoadDirectory reads every *.yaml / *.yml file in dir (non-recursive) and
// returns the declared datasets sorted by file name. A missing directory is
// not an error so deployments without declarative config start clean.
func LoadDirectory(dir string) ([]Dataset, error) {
	return LoadDirectoryWithOptions(dir, LoadOptions{})
}

// LoadDirectoryWithOptions reads a directory of dataset files using
// caller-provided loading options.
func LoadDirectoryWithOptions(dir string, opts LoadOptions) ([]Dataset, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("datasets directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("datasets directory: %s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read datasets directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)

	datasets := make([]Dataset, 0, len(paths))
	for _, path := range paths {
		ds, err := loadDatasetFile(path, opts)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, ds)
	}
	return datasets, nil
}

func loadDatasetFile(path string, opts LoadOptions) (Dataset, error) {
	data, err := os.ReadFile(path) //nolint:gosec // intentional: reading user-specified config files
	if err != nil {
		return Dataset{}, fmt.Errorf("read %s: %w", path, err)
	}

	var doc DatasetDoc
	if opts.AllowUnknownFields {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Dataset{}, fmt.Errorf("parse %s: %w", path, err)
		}
	} else {
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&doc); err != nil {
			return Dataset{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := validateDocument(path, doc); err != nil {
		return Dataset{}, err
	}

	definition, err := json.Marshal(doc.Spec)
	if err != nil {
		return Dataset{}, fmt.Errorf("encode %s: %w", path, err)
	}

	return Dataset{Name: doc.Name, Definition: definition, Source: path}, nil
}

// validateDocument checks the apiVersion, kind, and name fields.
func validateDocument(path string, doc DatasetDoc) error {
	if doc.APIVersion != SupportedAPIVersion {
		return fmt.Errorf("%s: unsupported apiVersion %q (expected %q)", path, doc.APIVersion, SupportedAPIVersion)
	}
	if doc.Kind != KindNameDataset {
		return fmt.Errorf("%s: unexpected kind %q (expected %q)", path, doc.Kind, KindNameDataset)
	}
	if doc.Name == "" {
		return fmt.Errorf("%s: dataset name must not be empty", path)
	}
	return nil
}
