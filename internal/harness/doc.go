// Package harness validates candidate records against a schema by
// round-tripping them through the record store.
//
// # Dataset Format
//
// Datasets are defined in YAML files with the following structure:
//
//	name: account_roundtrip
//	description: "Accounts round-trip; malformed accounts are rejected"
//	schema: account.cue
//	key: username
//	records:
//	  - fields: { username: "u", password: "p" }
//	    expect: { created: true, equal: true }
//	  - fields: { user: "u", password: "p" }
//	    expect: { created: false }
//	  - fields: { username: "w", password: "p", prop: "value" }
//	    expect: { created: true, equal: false }
//
// The schema path is resolved relative to the dataset file. The key
// names the identifying field used to retrieve persisted records.
//
// # Attempt Semantics
//
// Every record is one independent attempt, all attempts run
// concurrently:
//
//   - schema rejects + created expected     → failure
//   - schema accepts + rejection expected   → failure, no retrieval
//   - schema accepts + created expected     → retrieve by key field:
//     absent → failure; present → strip store-generated id/version,
//     then assert equality (equal: true) or inequality (equal: false)
//     against the submitted fields
//   - schema rejects + rejection expected   → correct rejection, done
//
// A failed attempt never aborts its siblings; failures accumulate in
// the shared Outcome (first error wins) and in the per-record Report.
//
// # Lifecycle
//
// The runner awaits the connection manager's readiness signal, runs all
// attempts, joins them with a completion-counting barrier, and only
// then tears the connection down (wipe, close, completion callback).
// There is no timer standing in for completion tracking.
//
// # Assertion Accounting
//
// The planned assertion count is computed up front: one accept/reject
// assertion per record, plus presence and equality assertions for each
// record expected to be accepted. Attempts count every assertion they
// actually execute; a planned/executed mismatch fails the run even if
// every executed assertion passed, so silently skipped retrievals are
// detectable.
//
// # Deterministic Runs
//
// With testutil.FixedIDGenerator and testutil.DeterministicClock wired
// into the store, a dataset produces byte-identical reports across
// runs, enabling golden snapshot comparison via RunWithGolden.
package harness
