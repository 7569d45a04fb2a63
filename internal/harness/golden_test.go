package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_CanonicalReport(t *testing.T) {
	report, err := RunWithGolden(t, Config{
		Dataset:      canonicalDataset(),
		Schema:       accountSchema(t),
		StoreOptions: deterministicStoreOptions(),
	})
	require.NoError(t, err)
	assert.True(t, report.Pass)
}

func TestAssertGolden_ReusesExistingReport(t *testing.T) {
	report := NewReport("account_roundtrip")
	report.PlannedAssertions = 7
	report.ExecutedAssertions = 7
	report.AddRecord(RecordResult{Index: 0, Created: true, Retrieved: true, Equal: true})
	report.AddRecord(RecordResult{Index: 1})
	report.AddRecord(RecordResult{Index: 2, Created: true, Retrieved: true})

	AssertGolden(t, "account_roundtrip", report)
}
