// Package conn owns the single database connection for a harness run.
//
// A Manager moves through uninitialized → connecting → open → torn-down;
// a failed dial parks it in the failed state instead of open. There is
// no transition out of torn-down. The readiness signal fires exactly
// once, and teardown (wipe, then close, then completion) is an explicit
// operation guarded by the state machine rather than an ambient global.
package conn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/vouch/internal/store"
)

// Lifecycle errors. Calling Teardown before the connection is open, or
// twice, is a programming error and fails fast.
var (
	ErrNotOpen    = errors.New("connection is not open")
	ErrTornDown   = errors.New("connection already torn down")
	ErrConnecting = errors.New("connection attempt already in progress")
)

// State is the connection lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateConnecting
	StateOpen
	StateFailed
	StateTornDown
)

// String returns the lifecycle state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateFailed:
		return "failed"
	case StateTornDown:
		return "torn-down"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Ready is the resolution of the readiness signal.
// Err is set when the connection could not be established; Store is set
// otherwise.
type Ready struct {
	Store *store.Store
	Err   error
}

// Outcome is the run outcome teardown finalizes. Satisfied by
// harness.Outcome; declared here so conn does not depend on the harness.
type Outcome interface {
	// Quiet reports whether teardown notices should be suppressed.
	Quiet() bool
	// Record stores an error into the outcome's first-error slot.
	Record(err error)
	// Complete invokes the completion callback exactly once with the
	// first recorded error, if any.
	Complete()
}

// Manager owns one connection for one run.
type Manager struct {
	mu     sync.Mutex
	state  State
	path   string
	opts   []store.Option
	st     *store.Store
	ready  chan Ready
	logger *slog.Logger
}

// NewManager creates a Manager for the database at path.
// Store options are forwarded to store.Open on Connect.
func NewManager(path string, logger *slog.Logger, opts ...store.Option) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		state:  StateUninitialized,
		path:   path,
		opts:   opts,
		ready:  make(chan Ready, 1),
		logger: logger,
	}
}

// Connect begins establishing the connection and returns immediately.
// The result is delivered once on the Ready channel.
//
// Returns ErrConnecting if a dial is already in flight, ErrTornDown
// after teardown, and ErrNotOpen semantics do not apply here: repeated
// Connect calls after a successful open also return ErrConnecting.
func (m *Manager) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateTornDown:
		return ErrTornDown
	case StateUninitialized, StateFailed:
		// failed → connecting allows a retry after a failed dial
	default:
		return ErrConnecting
	}
	m.state = StateConnecting

	go m.dial()
	return nil
}

// dial opens the store and resolves the readiness signal.
func (m *Manager) dial() {
	st, err := store.Open(m.path, m.opts...)

	m.mu.Lock()
	if err != nil {
		m.state = StateFailed
		m.mu.Unlock()
		m.logger.Error("connection failed", "path", m.path, "error", err)
		m.ready <- Ready{Err: fmt.Errorf("connect: %w", err)}
		return
	}
	m.st = st
	m.state = StateOpen
	m.mu.Unlock()

	m.logger.Info("connection open", "path", m.path)
	m.ready <- Ready{Store: st}
}

// Ready returns the channel the readiness result is delivered on.
// The channel receives exactly one value per successful Connect call.
func (m *Manager) Ready() <-chan Ready {
	return m.ready
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Store returns the open store handle, or nil if the connection is not open.
func (m *Manager) Store() *store.Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateOpen {
		return nil
	}
	return m.st
}

// Teardown ends the run: erases all stored records, closes the
// connection, emits a closed-connection notice unless the outcome is
// quiet, and finally completes the outcome with the first recorded
// error.
//
// Store errors during wipe or close are recorded into the outcome
// before completion; teardown itself still runs to the end. Teardown is
// safe to call exactly once: a second call returns ErrTornDown, and
// calling it before the connection is open returns ErrNotOpen.
func (m *Manager) Teardown(ctx context.Context, outcome Outcome) error {
	m.mu.Lock()
	switch m.state {
	case StateTornDown:
		m.mu.Unlock()
		return ErrTornDown
	case StateOpen:
	default:
		state := m.state
		m.mu.Unlock()
		return fmt.Errorf("%w (state %s)", ErrNotOpen, state)
	}
	st := m.st
	m.state = StateTornDown
	m.st = nil
	m.mu.Unlock()

	var wipeErr, closeErr error
	if wipeErr = st.Wipe(ctx); wipeErr != nil {
		wipeErr = fmt.Errorf("teardown wipe: %w", wipeErr)
		outcome.Record(wipeErr)
	}
	if closeErr = st.Close(); closeErr != nil {
		closeErr = fmt.Errorf("teardown close: %w", closeErr)
		outcome.Record(closeErr)
	}

	if !outcome.Quiet() {
		m.logger.Info("connection closed", "path", m.path)
	}

	outcome.Complete()

	if !outcome.Quiet() {
		m.logger.Info("run complete")
	}

	return errors.Join(wipeErr, closeErr)
}
