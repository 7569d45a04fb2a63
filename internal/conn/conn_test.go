package conn

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vouch/internal/store"
)

// fakeOutcome implements Outcome for lifecycle tests.
type fakeOutcome struct {
	mu        sync.Mutex
	quiet     bool
	recorded  []error
	completed int
}

func (f *fakeOutcome) Quiet() bool { return f.quiet }

func (f *fakeOutcome) Record(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorded = append(f.recorded, err)
}

func (f *fakeOutcome) Complete() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed++
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// awaitReady waits for the readiness signal with a test deadline.
func awaitReady(t *testing.T, m *Manager) Ready {
	t.Helper()
	select {
	case r := <-m.Ready():
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for readiness signal")
		return Ready{}
	}
}

func TestManager_ConnectResolvesReady(t *testing.T) {
	m := NewManager(":memory:", testLogger())
	assert.Equal(t, StateUninitialized, m.State())

	require.NoError(t, m.Connect())

	r := awaitReady(t, m)
	require.NoError(t, r.Err)
	require.NotNil(t, r.Store)
	assert.Equal(t, StateOpen, m.State())
	assert.Same(t, r.Store, m.Store())
}

func TestManager_ConnectFailureRejectsReady(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "no", "such", "dir", "x.db"), testLogger())

	require.NoError(t, m.Connect())

	r := awaitReady(t, m)
	require.Error(t, r.Err)
	assert.Nil(t, r.Store)
	assert.Equal(t, StateFailed, m.State())
	assert.Nil(t, m.Store())

	// failed → connecting is a legal retry edge
	assert.NoError(t, m.Connect())
	awaitReady(t, m)
}

func TestManager_DoubleConnect(t *testing.T) {
	m := NewManager(":memory:", testLogger())
	require.NoError(t, m.Connect())
	awaitReady(t, m)

	assert.ErrorIs(t, m.Connect(), ErrConnecting)
}

func TestManager_TeardownBeforeOpenFailsFast(t *testing.T) {
	m := NewManager(":memory:", testLogger())

	err := m.Teardown(context.Background(), &fakeOutcome{})
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestManager_TeardownWipesAndCloses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vouch.db")
	m := NewManager(path, testLogger())
	require.NoError(t, m.Connect())

	r := awaitReady(t, m)
	require.NoError(t, r.Err)

	ctx := context.Background()
	_, err := r.Store.Insert(ctx, map[string]any{"username": "u"})
	require.NoError(t, err)

	outcome := &fakeOutcome{}
	require.NoError(t, m.Teardown(ctx, outcome))
	assert.Equal(t, StateTornDown, m.State())
	assert.Equal(t, 1, outcome.completed)
	assert.Empty(t, outcome.recorded)

	// The working dataset must be gone after teardown.
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()
	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestManager_TeardownExactlyOnce(t *testing.T) {
	m := NewManager(":memory:", testLogger())
	require.NoError(t, m.Connect())
	awaitReady(t, m)

	ctx := context.Background()
	require.NoError(t, m.Teardown(ctx, &fakeOutcome{}))

	err := m.Teardown(ctx, &fakeOutcome{})
	assert.ErrorIs(t, err, ErrTornDown)

	// No transition back out of torn-down.
	assert.ErrorIs(t, m.Connect(), ErrTornDown)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "connecting", StateConnecting.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "torn-down", StateTornDown.String())
}
