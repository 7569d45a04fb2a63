package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/vouch/internal/harness"
	"github.com/roach88/vouch/internal/schema"
	"github.com/roach88/vouch/internal/store"
)

// Error codes for CLI JSON responses.
const (
	ErrCodeDataset = "E_DATASET" // dataset file missing or malformed
	ErrCodeSchema  = "E_SCHEMA"  // schema file missing or malformed
	ErrCodeRun     = "E_RUN"     // run could not execute
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string

	// StoreOptions allows overriding the store's identifier and version
	// sources (for testing). If nil, production defaults are used.
	StoreOptions []store.Option
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <dataset.yaml>",
		Short: "Run a dataset against the record store",
		Long: `Run a validation dataset against the record store.

Loads the dataset and its schema, opens a SQLite database (in-memory by
default), persists every candidate record concurrently, checks the
expected accept/reject and round-trip outcomes, and tears the store
down. The exit code reports the result: 0 pass, 1 validation failure,
2 command error.

Example:
  vouch run testdata/accounts.yaml
  vouch run --db /tmp/vouch.db testdata/accounts.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDataset(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", ":memory:", "path to SQLite database")

	return cmd
}

func runDataset(opts *RunOptions, datasetPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	logger := newLogger(opts.RootOptions)

	ds, err := harness.LoadDataset(datasetPath)
	if err != nil {
		_ = formatter.Error(ErrCodeDataset, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load dataset", err)
	}
	formatter.VerboseLog("Loaded dataset %s (%d records)", ds.Name, len(ds.Records))

	sch, err := schema.Load(ds.Schema)
	if err != nil {
		_ = formatter.Error(ErrCodeSchema, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load schema", err)
	}

	runner, err := harness.NewRunner(harness.Config{
		Dataset:      ds,
		Schema:       sch,
		DBPath:       opts.Database,
		Logger:       logger,
		Quiet:        opts.Quiet,
		StoreOptions: opts.StoreOptions,
	})
	if err != nil {
		_ = formatter.Error(ErrCodeRun, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to build runner", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	report, err := runner.Run(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeRun, err.Error(), nil)
		return WrapExitError(ExitCommandError, "run failed", err)
	}

	if opts.Format == "json" {
		if err := formatter.Success(report); err != nil {
			return err
		}
	} else {
		printReport(cmd.OutOrStdout(), report)
	}

	if !report.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("dataset %s failed (%d of %d records)", report.Dataset, report.FailureCount(), len(report.Records)))
	}
	return nil
}

// printReport writes the human-readable report form.
func printReport(w io.Writer, report *harness.Report) {
	status := "PASS"
	if !report.Pass {
		status = "FAIL"
	}
	fmt.Fprintf(w, "Dataset %s: %s (%d records, %d/%d assertions)\n",
		report.Dataset, status, len(report.Records),
		report.ExecutedAssertions, report.PlannedAssertions)

	for _, rec := range report.Records {
		mark := "ok"
		if !rec.Pass() {
			mark = "FAIL"
		}
		fmt.Fprintf(w, "  [%d] created=%t retrieved=%t equal=%t %s\n",
			rec.Index, rec.Created, rec.Retrieved, rec.Equal, mark)
		for _, msg := range rec.Errors {
			fmt.Fprintf(w, "      %s\n", msg)
		}
	}
	for _, msg := range report.Errors {
		fmt.Fprintf(w, "  error: %s\n", msg)
	}
}

// newLogger builds the slog logger the harness and connection manager
// share, honoring --verbose and --quiet.
func newLogger(opts *RootOptions) *slog.Logger {
	if opts.Quiet {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
