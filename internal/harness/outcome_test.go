package harness

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome_FirstErrorWins(t *testing.T) {
	o := NewOutcome(nil, false)

	first := errors.New("first")
	o.Record(first)
	o.Record(errors.New("second"))

	assert.Same(t, first, o.FirstError())
}

func TestOutcome_NilErrorsIgnored(t *testing.T) {
	o := NewOutcome(nil, false)

	o.Record(nil)
	assert.NoError(t, o.FirstError())

	err := errors.New("real")
	o.Record(err)
	o.Record(nil)
	assert.Same(t, err, o.FirstError())
}

func TestOutcome_CompleteExactlyOnce(t *testing.T) {
	var calls int
	var got error
	o := NewOutcome(func(err error) {
		calls++
		got = err
	}, false)

	failure := errors.New("boom")
	o.Record(failure)

	o.Complete()
	o.Complete()
	o.Complete()

	assert.Equal(t, 1, calls)
	assert.Same(t, failure, got)
}

func TestOutcome_CompleteWithNoFailure(t *testing.T) {
	var got error = errors.New("sentinel")
	o := NewOutcome(func(err error) { got = err }, false)

	o.Complete()
	assert.NoError(t, got)
}

func TestOutcome_NilCallback(t *testing.T) {
	o := NewOutcome(nil, true)
	assert.True(t, o.Quiet())
	assert.NotPanics(t, o.Complete)
}

func TestOutcome_ConcurrentRecord(t *testing.T) {
	o := NewOutcome(nil, false)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			o.Record(fmt.Errorf("attempt %d", i))
		}(i)
	}
	wg.Wait()

	// Exactly one of the racing errors won the slot.
	require.Error(t, o.FirstError())
}

func TestOutcome_AssertionCounters(t *testing.T) {
	o := NewOutcome(nil, false)
	o.PlanAssertions(7)

	var wg sync.WaitGroup
	for i := 0; i < 7; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.CountAssertion()
		}()
	}
	wg.Wait()

	assert.Equal(t, 7, o.Planned())
	assert.Equal(t, 7, o.Executed())
}
