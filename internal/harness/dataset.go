package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Dataset is the fixed input for one validation run.
type Dataset struct {
	// Name uniquely identifies this dataset.
	Name string `yaml:"name"`

	// Description explains what this dataset validates.
	Description string `yaml:"description,omitempty"`

	// Schema is the path to the CUE schema file.
	// Relative paths resolve against the dataset file location.
	Schema string `yaml:"schema"`

	// Key names the identifying field used to retrieve persisted records.
	Key string `yaml:"key"`

	// Records are the candidate records with their expected outcomes.
	Records []Candidate `yaml:"records"`
}

// Candidate is one record submitted for persistence and validation.
type Candidate struct {
	// Fields is the submitted field name → value mapping.
	Fields map[string]any `yaml:"fields"`

	// Expect declares the required outcome for this candidate.
	Expect Expectation `yaml:"expect"`
}

// Expectation declares whether the schema should accept a candidate and
// whether the retrieved form should equal the submitted form.
type Expectation struct {
	// Created is true when the schema must accept the record.
	Created bool `yaml:"created"`

	// Equal is true when the retrieved record must deep-equal the
	// submitted fields. False flags records carrying fields the schema
	// does not declare: the stored shape legitimately differs because
	// those fields are dropped.
	Equal bool `yaml:"equal,omitempty"`
}

// LoadDataset reads and parses a dataset YAML file.
// The schema path is resolved relative to the dataset file's directory.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}

	ds, err := ParseDataset(data)
	if err != nil {
		return nil, err
	}

	if ds.Schema != "" && !filepath.IsAbs(ds.Schema) {
		ds.Schema = filepath.Join(filepath.Dir(path), ds.Schema)
	}

	return ds, nil
}

// ParseDataset parses dataset YAML with strict field validation
// (catches typos like "record:" vs "records:").
func ParseDataset(data []byte) (*Dataset, error) {
	var ds Dataset
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&ds); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateDataset(&ds); err != nil {
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}

	return &ds, nil
}

// validateDataset checks that required fields are present and valid.
func validateDataset(ds *Dataset) error {
	if ds.Name == "" {
		return fmt.Errorf("name is required")
	}
	if ds.Schema == "" {
		return fmt.Errorf("schema is required")
	}
	if ds.Key == "" {
		return fmt.Errorf("key is required")
	}
	if len(ds.Records) == 0 {
		return fmt.Errorf("records list is required and must be non-empty")
	}
	for i, rec := range ds.Records {
		if rec.Fields == nil {
			return fmt.Errorf("records[%d]: fields is required", i)
		}
	}
	return nil
}

// PlannedAssertions computes the exact number of assertions a run of
// this dataset must execute: one accept/reject assertion per record,
// plus presence and equality assertions for each record expected to be
// accepted.
func (ds *Dataset) PlannedAssertions() int {
	n := 0
	for _, rec := range ds.Records {
		n++
		if rec.Expect.Created {
			n += 2
		}
	}
	return n
}
