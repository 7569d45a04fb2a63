package harness

// RecordResult is the outcome of one candidate record's attempt.
type RecordResult struct {
	// Index is the candidate's position in the dataset.
	Index int `json:"index"`

	// Created indicates the persistence attempt succeeded.
	Created bool `json:"created"`

	// Retrieved indicates the follow-up point lookup returned a record.
	// Only meaningful when Created is true and acceptance was expected.
	Retrieved bool `json:"retrieved"`

	// Equal indicates the retrieved shape matched the submitted fields.
	// Only meaningful when Retrieved is true.
	Equal bool `json:"equal"`

	// Errors contains this attempt's assertion and store failures.
	// Empty when the attempt met its expectations.
	Errors []string `json:"errors,omitempty"`
}

// Pass reports whether this attempt met all of its expectations.
func (r RecordResult) Pass() bool {
	return len(r.Errors) == 0
}

// Report is the aggregated outcome of a validation run.
type Report struct {
	// Dataset names the dataset that ran.
	Dataset string `json:"dataset"`

	// Pass indicates overall success: every attempt met its
	// expectations and the executed assertion count matched the plan.
	Pass bool `json:"pass"`

	// PlannedAssertions is the count computed before the run started.
	PlannedAssertions int `json:"planned_assertions"`

	// ExecutedAssertions is the count of assertions actually executed.
	// A mismatch with PlannedAssertions fails the run by itself.
	ExecutedAssertions int `json:"executed_assertions"`

	// Records holds per-candidate results in dataset order.
	Records []RecordResult `json:"records"`

	// Errors contains run-level failures: the first per-record errors
	// are kept on the records themselves.
	Errors []string `json:"errors,omitempty"`
}

// NewReport creates a passing report for the named dataset.
func NewReport(dataset string) *Report {
	return &Report{
		Dataset: dataset,
		Pass:    true,
		Records: []RecordResult{},
	}
}

// AddError adds a run-level error and marks the report as failed.
func (r *Report) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

// AddRecord appends a per-candidate result, failing the report if the
// attempt failed.
func (r *Report) AddRecord(rec RecordResult) {
	r.Records = append(r.Records, rec)
	if !rec.Pass() {
		r.Pass = false
	}
}

// FailureCount returns the number of failed attempts.
func (r *Report) FailureCount() int {
	n := 0
	for _, rec := range r.Records {
		if !rec.Pass() {
			n++
		}
	}
	return n
}
