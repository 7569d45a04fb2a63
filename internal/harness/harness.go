package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/roach88/vouch/internal/conn"
	"github.com/roach88/vouch/internal/schema"
	"github.com/roach88/vouch/internal/store"
)

// Config describes one validation run.
type Config struct {
	// Dataset holds the candidate records and expectations. Required.
	Dataset *Dataset

	// Schema is the field-constraint oracle. Required.
	Schema *schema.Schema

	// DBPath is the SQLite database path. Defaults to ":memory:".
	DBPath string

	// Logger receives run diagnostics. Defaults to a discarding logger.
	Logger *slog.Logger

	// Quiet suppresses teardown notices.
	Quiet bool

	// OnComplete is the completion callback, invoked exactly once after
	// teardown with the first recorded failure (or nil). Optional.
	OnComplete func(error)

	// StoreOptions are forwarded to store.Open. Tests use these to wire
	// deterministic identifier and version sources.
	StoreOptions []store.Option
}

// Runner executes a dataset against a fresh connection.
type Runner struct {
	dataset   *Dataset
	schema    *schema.Schema
	dbPath    string
	logger    *slog.Logger
	outcome   *Outcome
	storeOpts []store.Option
}

// NewRunner validates the config and builds a Runner.
//
// The dataset's key field must be declared in the schema; retrieving by
// an undeclared field could never succeed, so this fails early.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Dataset == nil {
		return nil, fmt.Errorf("new runner: dataset is required")
	}
	if cfg.Schema == nil {
		return nil, fmt.Errorf("new runner: schema is required")
	}
	if _, ok := cfg.Schema.Field(cfg.Dataset.Key); !ok {
		return nil, fmt.Errorf("new runner: key field %q is not declared in the schema", cfg.Dataset.Key)
	}

	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = ":memory:"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Runner{
		dataset:   cfg.Dataset,
		schema:    cfg.Schema,
		dbPath:    dbPath,
		logger:    logger,
		outcome:   NewOutcome(cfg.OnComplete, cfg.Quiet),
		storeOpts: cfg.StoreOptions,
	}, nil
}

// Outcome returns the shared accumulator for this run.
func (r *Runner) Outcome() *Outcome {
	return r.outcome
}

// Run executes the dataset and returns the aggregated report.
//
// Execution flow:
//  1. Register the planned assertion count with the outcome.
//  2. Connect and await the readiness signal; a connection failure is
//     fatal and no attempts run.
//  3. Fire one attempt per candidate record concurrently.
//  4. Join all attempts with a completion-counting barrier.
//  5. Check executed vs planned assertion counts.
//  6. Tear down (wipe, close, completion callback).
//
// Assertion and store failures inside attempts never abort the run; the
// returned error is non-nil only for infrastructure failures that
// prevented the run from happening at all.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	planned := r.dataset.PlannedAssertions()
	r.outcome.PlanAssertions(planned)

	mgr := conn.NewManager(r.dbPath, r.logger, r.storeOpts...)
	if err := mgr.Connect(); err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}

	var ready conn.Ready
	select {
	case ready = <-mgr.Ready():
	case <-ctx.Done():
		return nil, fmt.Errorf("run: %w", ctx.Err())
	}
	if ready.Err != nil {
		// Fatal: the readiness future rejected, nothing to tear down.
		r.outcome.Record(ready.Err)
		r.outcome.Complete()
		return nil, fmt.Errorf("run: %w", ready.Err)
	}

	r.logger.Info("run started",
		"dataset", r.dataset.Name,
		"records", len(r.dataset.Records),
		"planned_assertions", planned,
	)

	// One attempt per candidate, all concurrent. Results land in a
	// pre-sized slice so report order stays deterministic regardless of
	// interleaving.
	results := make([]RecordResult, len(r.dataset.Records))
	var wg sync.WaitGroup
	for i, cand := range r.dataset.Records {
		wg.Add(1)
		go func(i int, cand Candidate) {
			defer wg.Done()
			results[i] = r.attempt(ctx, i, cand, ready.Store)
		}(i, cand)
	}
	// The completion-counting barrier: teardown must not begin before
	// every attempt has settled.
	wg.Wait()

	report := NewReport(r.dataset.Name)
	for _, res := range results {
		report.AddRecord(res)
	}
	report.PlannedAssertions = r.outcome.Planned()
	report.ExecutedAssertions = r.outcome.Executed()

	if report.ExecutedAssertions != report.PlannedAssertions {
		err := fmt.Errorf("executed %d of %d planned assertions", report.ExecutedAssertions, report.PlannedAssertions)
		r.outcome.Record(err)
		report.AddError(err.Error())
	}

	if err := mgr.Teardown(ctx, r.outcome); err != nil {
		report.AddError(err.Error())
	}

	r.logger.Info("run finished",
		"dataset", r.dataset.Name,
		"pass", report.Pass,
		"failures", report.FailureCount(),
	)

	return report, nil
}

// attempt runs one candidate's persistence/retrieval sequence.
// All failures are recorded into both the shared outcome and the
// returned result; nothing here panics or aborts sibling attempts.
func (r *Runner) attempt(ctx context.Context, index int, cand Candidate, st *store.Store) RecordResult {
	result := RecordResult{Index: index}

	fail := func(err error) {
		r.outcome.Record(err)
		result.Errors = append(result.Errors, err.Error())
	}

	clean, applyErr := r.schema.Apply(cand.Fields)
	if applyErr != nil {
		// Schema rejected the candidate.
		r.outcome.CountAssertion()
		if cand.Expect.Created {
			fail(&AssertionError{
				Kind:     AssertPersist,
				Record:   index,
				Expected: "persistence to succeed",
				Actual:   fmt.Sprintf("rejected: %v", applyErr),
			})
		}
		// Correct rejection: no retrieval, nothing further to assert.
		r.logger.Debug("attempt settled", "record", index, "created", false)
		return result
	}

	rec, insErr := st.Insert(ctx, clean)
	if insErr != nil {
		// Not a validation rejection: the store itself failed.
		r.outcome.CountAssertion()
		fail(&StoreError{Op: "insert", Record: index, Err: insErr})
		return result
	}
	result.Created = true

	r.outcome.CountAssertion()
	if !cand.Expect.Created {
		fail(&AssertionError{
			Kind:     AssertPersist,
			Record:   index,
			Expected: "persistence to fail",
			Actual:   fmt.Sprintf("record stored with id %s", rec.ID),
		})
		// Expected a rejection; retrieval would assert nothing useful.
		return result
	}

	// Retrieve by the identifying field and check the round trip.
	keyValue := clean[r.dataset.Key]
	found, findErr := st.FindByField(ctx, r.dataset.Key, keyValue)
	r.outcome.CountAssertion()
	if findErr != nil {
		fail(&StoreError{Op: "find", Record: index, Err: findErr})
		return result
	}
	if found == nil {
		fail(&AssertionError{
			Kind:     AssertPresence,
			Record:   index,
			Expected: fmt.Sprintf("a record with %s=%v", r.dataset.Key, keyValue),
			Actual:   "no record found",
		})
		return result
	}
	result.Retrieved = true

	// Identifier and version are store-generated; found.Fields carries
	// only the logical shape, so the comparison is against the
	// submitted fields directly.
	result.Equal = fieldsEqual(cand.Fields, found.Fields)
	r.outcome.CountAssertion()
	if result.Equal != cand.Expect.Equal {
		expected := "retrieved record to differ from the submitted fields"
		if cand.Expect.Equal {
			expected = "retrieved record to equal the submitted fields"
		}
		fail(&AssertionError{
			Kind:     AssertEquality,
			Record:   index,
			Expected: expected,
			Actual:   fmt.Sprintf("stored shape %v", found.Fields),
		})
		return result
	}

	r.logger.Debug("attempt settled", "record", index, "created", true, "equal", result.Equal)
	return result
}
