package harness

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a dataset and compares the report against a
// golden file stored in testdata/golden/{dataset.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden comparison requires a deterministic run: wire
// testutil.FixedIDGenerator and testutil.DeterministicClock into
// cfg.StoreOptions, otherwise record identifiers differ between runs.
//
// Returns an error if the run could not execute at all; report
// mismatches fail the test via goldie.
func RunWithGolden(t *testing.T, cfg Config) (*Report, error) {
	t.Helper()

	runner, err := NewRunner(cfg)
	if err != nil {
		return nil, err
	}
	report, err := runner.Run(context.Background())
	if err != nil {
		return nil, err
	}

	AssertGolden(t, cfg.Dataset.Name, report)
	return report, nil
}

// AssertGolden compares an already-produced report against a golden
// file. Useful when the caller ran the dataset itself and only wants
// the snapshot check.
func AssertGolden(t *testing.T, name string, report *Report) {
	t.Helper()

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		t.Fatalf("marshal report: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
