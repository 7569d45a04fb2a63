package harness

import (
	"fmt"
	"strings"
)

// Assertion kinds, used to categorize failures in reports.
const (
	AssertPersist  = "persist"  // accept/reject outcome of the persistence attempt
	AssertPresence = "presence" // retrieved record exists for the key field
	AssertEquality = "equality" // retrieved shape equals/differs from the submitted shape
)

// AssertionError is returned when an expectation about a candidate
// record did not hold. It includes the record index and both sides of
// the comparison to help debug the failure.
type AssertionError struct {
	Kind     string // Assertion kind for categorization
	Record   int    // Index of the candidate record in the dataset
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "record %d: assertion failed: %s\n", e.Record, e.Kind)
	fmt.Fprintf(&buf, "  expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  actual: %s", e.Actual)
	return buf.String()
}

// StoreError wraps an unexpected store failure during an attempt, an
// insert or lookup that failed for reasons other than schema rejection.
// It propagates into the outcome the same way an assertion failure does.
type StoreError struct {
	Op     string // "insert" or "find"
	Record int    // Index of the candidate record in the dataset
	Err    error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("record %d: unexpected store error during %s: %v", e.Record, e.Op, e.Err)
}

// Unwrap returns the underlying store error.
func (e *StoreError) Unwrap() error {
	return e.Err
}
