package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/vouch/internal/harness"
	"github.com/roach88/vouch/internal/schema"
)

// ValidationResult holds the dry-run check of a dataset's expectations
// against the schema oracle.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <dataset.yaml>",
		Short: "Check a dataset's expectations without a database",
		Long: `Check that a dataset's expectations are consistent with its schema
without touching a database.

For every candidate record the schema decides accept/reject and whether
the cleaned shape still equals the submitted shape; mismatches against
the record's declared expectations are reported. Faster than a full run
for dataset authoring feedback.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, datasetPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	ds, err := harness.LoadDataset(datasetPath)
	if err != nil {
		_ = formatter.Error(ErrCodeDataset, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load dataset", err)
	}

	sch, err := schema.Load(ds.Schema)
	if err != nil {
		_ = formatter.Error(ErrCodeSchema, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load schema", err)
	}

	result := validateExpectations(ds, sch)

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else if result.Valid {
		fmt.Fprintf(cmd.OutOrStdout(), "Dataset %s: expectations consistent (%d records)\n", ds.Name, len(ds.Records))
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Dataset %s: inconsistent expectations\n", ds.Name)
		for _, msg := range result.Errors {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", msg)
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("dataset %s has inconsistent expectations", ds.Name))
	}
	return nil
}

// validateExpectations replays the schema oracle over the dataset:
// the accept/reject and equality outcomes the schema dictates must
// match what each record declares.
func validateExpectations(ds *harness.Dataset, sch *schema.Schema) ValidationResult {
	result := ValidationResult{Valid: true}

	addError := func(format string, args ...any) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
	}

	if _, ok := sch.Field(ds.Key); !ok {
		addError("key field %q is not declared in the schema", ds.Key)
	}

	for i, rec := range ds.Records {
		clean, err := sch.Apply(rec.Fields)
		accepted := err == nil

		if accepted != rec.Expect.Created {
			if rec.Expect.Created {
				addError("records[%d]: expects created but the schema rejects it: %v", i, err)
			} else {
				addError("records[%d]: expects rejection but the schema accepts it", i)
			}
			continue
		}
		if !accepted {
			continue
		}

		// A record that declares equal: true must not carry fields the
		// schema would drop; equal: false must carry at least one.
		equal := len(clean) == len(rec.Fields)
		if equal != rec.Expect.Equal {
			if rec.Expect.Equal {
				addError("records[%d]: expects an equal round trip but the schema drops undeclared fields", i)
			} else {
				addError("records[%d]: expects an unequal round trip but every submitted field is declared", i)
			}
		}
	}

	return result
}
