package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vouch/internal/harness"
	"github.com/roach88/vouch/internal/schema"
)

func TestValidateCommand_Consistent(t *testing.T) {
	path := writeFixtures(t, passingDataset)

	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "expectations consistent (3 records)")
}

func TestValidateCommand_Inconsistent(t *testing.T) {
	path := writeFixtures(t, failingDataset)

	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "records[0]: expects created but the schema rejects it")
}

func TestValidateCommand_MissingDataset(t *testing.T) {
	_, err := execute(t, "validate", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateCommand_MalformedDataset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: x\nbogus_key: y\n"), 0o644))

	_, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateExpectations(t *testing.T) {
	sch, err := schema.Parse("username: string\npassword: string\n")
	require.NoError(t, err)

	t.Run("key not declared", func(t *testing.T) {
		ds := &harness.Dataset{Name: "d", Key: "email"}
		result := validateExpectations(ds, sch)
		assert.False(t, result.Valid)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], `key field "email"`)
	})

	t.Run("expects rejection but accepted", func(t *testing.T) {
		ds := &harness.Dataset{
			Name: "d",
			Key:  "username",
			Records: []harness.Candidate{
				{
					Fields: map[string]any{"username": "a", "password": "b"},
					Expect: harness.Expectation{Created: false},
				},
			},
		}
		result := validateExpectations(ds, sch)
		assert.False(t, result.Valid)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "expects rejection but the schema accepts it")
	})

	t.Run("equality mismatch", func(t *testing.T) {
		ds := &harness.Dataset{
			Name: "d",
			Key:  "username",
			Records: []harness.Candidate{
				{
					Fields: map[string]any{"username": "a", "password": "b", "extra": "x"},
					Expect: harness.Expectation{Created: true, Equal: true},
				},
			},
		}
		result := validateExpectations(ds, sch)
		assert.False(t, result.Valid)
		require.Len(t, result.Errors, 1)
		assert.Contains(t, result.Errors[0], "the schema drops undeclared fields")
	})
}
