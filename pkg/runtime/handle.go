package runtime

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/confsync/confsync/pkg/providers"
	"github.com/confsync/confsync/pkg/store"
)

// Handle binds one configuration file to its store and carries the
// synchronization state the runtime needs: the write counter distinguishing
// self-caused file events from external ones and the dirty callback bound by
// the runtime. A handle lives from registration to process shutdown.
type Handle struct {
	id       string
	path     string
	store    *store.Store
	provider providers.Provider

	// writes is the signed write counter: +1 per save before the write,
	// -1 per observed file-system event for the path.
	writes atomic.Int32

	mu    sync.Mutex
	dirty func()
}

// NewHandle creates an unregistered handle for the config file at path.
func NewHandle(path string, st *store.Store, p providers.Provider) (*Handle, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("runtime: resolve path %s: %w", path, err)
	}
	return &Handle{
		id:       uuid.NewString(),
		path:     abs,
		store:    st,
		provider: p,
	}, nil
}

// ID returns the handle's unique identifier.
func (h *Handle) ID() string { return h.id }

// Path returns the absolute config file path.
func (h *Handle) Path() string { return h.path }

// Store returns the generated store backing this handle.
func (h *Handle) Store() *store.Store { return h.store }

// MarkDirty requests a coalesced background save. The actual disk write
// happens on the runtime's save consumer; calling MarkDirty on an
// unregistered handle is a no-op.
func (h *Handle) MarkDirty() {
	h.mu.Lock()
	dirty := h.dirty
	h.mu.Unlock()
	if dirty != nil {
		dirty()
	}
}

// bindDirty rebinds the dirty callback. The runtime calls this whenever the
// registry changes and with nil during shutdown.
func (h *Handle) bindDirty(fn func()) {
	h.mu.Lock()
	h.dirty = fn
	h.mu.Unlock()
}

// announceWrite pre-announces one self-write so the resulting file-system
// event is absorbed by the counter protocol.
func (h *Handle) announceWrite() { h.writes.Add(1) }

// retractWrite withdraws an announcement after a save that never reached the
// disk: no event will arrive to balance it.
func (h *Handle) retractWrite() { h.writes.Add(-1) }

// observeEvent consumes one file-system event against the counter. It
// returns true when the event was not accounted for by a self-write and a
// load should be dispatched, after clamping the counter back to zero.
func (h *Handle) observeEvent() bool {
	if h.writes.Add(-1) >= 0 {
		return false
	}
	h.clampWrites()
	return true
}

// clampWrites is the sanity fix: compare-and-retry until the counter is
// non-negative again, tolerating concurrent increments and decrements.
func (h *Handle) clampWrites() {
	for {
		cur := h.writes.Load()
		if cur >= 0 || h.writes.CompareAndSwap(cur, 0) {
			return
		}
	}
}
