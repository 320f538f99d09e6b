package runtime

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/confsync/confsync/pkg/providers"
	"github.com/confsync/confsync/pkg/store"
	"github.com/confsync/confsync/pkg/values"
)

type syncedConfig struct {
	Value int

	loads atomic.Int32
}

func (c *syncedConfig) AfterLoad() { c.loads.Add(1) }

// newTestHandle wires a config instance to a memory provider, pre-seeding
// the document so the initial load succeeds.
func newTestHandle(t *testing.T, cfg *syncedConfig, mem *providers.Memory) *Handle {
	t.Helper()
	st, err := store.New(cfg)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	h, err := NewHandle(path, st, mem)
	if err != nil {
		t.Fatalf("NewHandle: %v", err)
	}

	doc := values.Map()
	doc.Set("Value", values.Int(int64(cfg.Value)))
	if err := mem.Store(doc, h.path); err != nil {
		t.Fatal(err)
	}
	return h
}

func TestWriteCounterProtocol(t *testing.T) {
	h := &Handle{}

	// An external event with no announced write triggers a load.
	if !h.observeEvent() {
		t.Error("unannounced event should trigger a load")
	}
	if got := h.writes.Load(); got != 0 {
		t.Errorf("counter = %d after clamp, want 0", got)
	}

	// One save, one event: suppressed.
	h.announceWrite()
	if h.observeEvent() {
		t.Error("event matching an announced write should be suppressed")
	}

	// A retracted announcement leaves nothing to absorb the next event.
	h.announceWrite()
	h.retractWrite()
	if !h.observeEvent() {
		t.Error("event after a retracted write should trigger a load")
	}
}

func TestWriteCounterClampsBetweenExternalEvents(t *testing.T) {
	h := &Handle{}

	if !h.observeEvent() {
		t.Fatal("first external event should trigger")
	}
	if !h.observeEvent() {
		t.Error("second external event should trigger, not be absorbed by a stale negative counter")
	}

	// A save announced after the clamp still suppresses its own event.
	h.announceWrite()
	if h.observeEvent() {
		t.Error("self-write event should be suppressed after prior external events")
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := New()
	defer r.Shutdown()

	mem := providers.NewMemory()
	cfg := &syncedConfig{Value: 1}
	h := newTestHandle(t, cfg, mem)

	if err := r.Register(h); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(h); !errors.Is(err, ErrDuplicateHandle) {
		t.Errorf("got %v, want ErrDuplicateHandle", err)
	}

	st2, err := store.New(&syncedConfig{})
	if err != nil {
		t.Fatal(err)
	}
	h2, err := NewHandle(h.path, st2, mem)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Register(h2); !errors.Is(err, ErrPathConflict) {
		t.Errorf("got %v, want ErrPathConflict", err)
	}
}

func TestTriggerLoadAllWaits(t *testing.T) {
	r := New()
	defer r.Shutdown()

	mem := providers.NewMemory()
	cfg := &syncedConfig{}
	h := newTestHandle(t, cfg, mem)

	doc := values.Map()
	doc.Set("Value", values.Int(99))
	if err := mem.Store(doc, h.path); err != nil {
		t.Fatal(err)
	}

	if err := r.Register(h); err != nil {
		t.Fatalf("Register: %v", err)
	}
	r.TriggerLoadAll()

	if cfg.Value != 99 {
		t.Errorf("Value = %d after TriggerLoadAll, want 99", cfg.Value)
	}
	if cfg.loads.Load() < 1 {
		t.Error("load hook never fired")
	}
}

// TestSelfWriteSuppressed drives the watcher callback directly: the load
// executor is single-threaded and FIFO, so TriggerLoadAll doubles as a
// barrier and the hook counter gives an exact load count.
func TestSelfWriteSuppressed(t *testing.T) {
	r := New()
	defer r.Shutdown()

	mem := providers.NewMemory()
	cfg := &syncedConfig{Value: 1}
	h := newTestHandle(t, cfg, mem)
	if err := r.Register(h); err != nil {
		t.Fatalf("Register: %v", err)
	}
	r.TriggerLoadAll()
	base := cfg.loads.Load()

	if err := r.Save(h); err != nil {
		t.Fatalf("Save: %v", err)
	}
	r.dispatchEvent(fsnotify.Event{Name: h.path, Op: fsnotify.Write})
	r.TriggerLoadAll()

	if got := cfg.loads.Load(); got != base+1 {
		t.Errorf("loads = %d after self-write event, want %d (suppressed + 1 triggered)", got, base+1)
	}

	// The same event arriving externally does dispatch a load.
	r.dispatchEvent(fsnotify.Event{Name: h.path, Op: fsnotify.Write})
	r.TriggerLoadAll()

	if got := cfg.loads.Load(); got != base+3 {
		t.Errorf("loads = %d after external event, want %d (dispatched + triggered)", got, base+3)
	}
}

type faultyConfig struct {
	Value int
}

func (c *faultyConfig) AfterLoad() { panic("bad hook") }

// TestLoadHookPanicDoesNotKillExecutor: a panicking AfterLoad hook is
// converted to a load error; the executor goroutine survives and keeps
// serving other handles.
func TestLoadHookPanicDoesNotKillExecutor(t *testing.T) {
	r := New()
	defer r.Shutdown()

	mem := providers.NewMemory()

	bad := &faultyConfig{}
	stBad, err := store.New(bad)
	if err != nil {
		t.Fatal(err)
	}
	hBad, err := NewHandle(filepath.Join(t.TempDir(), "bad.yaml"), stBad, mem)
	if err != nil {
		t.Fatal(err)
	}
	doc := values.Map()
	doc.Set("Value", values.Int(1))
	if err := mem.Store(doc, hBad.path); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(hBad); err != nil {
		t.Fatalf("Register: %v", err)
	}

	good := &syncedConfig{Value: 5}
	hGood := newTestHandle(t, good, mem)
	if err := r.Register(hGood); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Both handles load; the bad one panics in its hook, the good one must
	// still complete on the same executor.
	r.TriggerLoadAll()
	r.TriggerLoadAll()

	if good.loads.Load() < 2 {
		t.Fatalf("healthy handle loaded %d times, executor appears dead", good.loads.Load())
	}
	if good.Value != 5 {
		t.Errorf("Value = %d, want 5", good.Value)
	}
}

func TestEventForUnknownPathIgnored(t *testing.T) {
	r := New()
	defer r.Shutdown()

	mem := providers.NewMemory()
	cfg := &syncedConfig{}
	h := newTestHandle(t, cfg, mem)
	if err := r.Register(h); err != nil {
		t.Fatal(err)
	}
	r.TriggerLoadAll()
	base := cfg.loads.Load()

	r.dispatchEvent(fsnotify.Event{Name: filepath.Join(filepath.Dir(h.path), "other.yaml"), Op: fsnotify.Write})
	r.TriggerLoadAll()

	if got := cfg.loads.Load(); got != base+1 {
		t.Errorf("loads = %d after unrelated event, want %d", got, base+1)
	}
}

func TestMarkDirtySavesInBackground(t *testing.T) {
	r := New()
	defer r.Shutdown()

	mem := providers.NewMemory()
	cfg := &syncedConfig{Value: 1}
	h := newTestHandle(t, cfg, mem)
	if err := r.Register(h); err != nil {
		t.Fatal(err)
	}
	r.TriggerLoadAll()

	cfg.Value = 7
	h.MarkDirty()

	deadline := time.Now().Add(5 * time.Second)
	for {
		doc, err := mem.Load(h.path)
		if err == nil {
			if node, ok := doc.Get("Value"); ok && node.AsInt() == 7 {
				return
			}
		}
		if time.Now().After(deadline) {
			t.Fatal("background save never reached the provider")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestMarkDirtyBeforeRegisterIsNoop(t *testing.T) {
	mem := providers.NewMemory()
	cfg := &syncedConfig{}
	h := newTestHandle(t, cfg, mem)
	h.MarkDirty() // must not panic or block
}

func TestShutdownPerformsFinalSave(t *testing.T) {
	r := New()

	mem := providers.NewMemory()
	cfg := &syncedConfig{Value: 1}
	h := newTestHandle(t, cfg, mem)
	if err := r.Register(h); err != nil {
		t.Fatal(err)
	}
	r.TriggerLoadAll()

	cfg.Value = 42
	r.Shutdown()

	doc, err := mem.Load(h.path)
	if err != nil {
		t.Fatalf("Load after shutdown: %v", err)
	}
	if node, ok := doc.Get("Value"); !ok || node.AsInt() != 42 {
		t.Error("shutdown should flush the in-memory state")
	}

	// Shutdown is idempotent.
	r.Shutdown()
}

// TestExternalEditReloads exercises the real watcher: an edit made by
// another process (simulated with os.WriteFile) must reach the instance.
func TestExternalEditReloads(t *testing.T) {
	r := New()
	defer r.Shutdown()

	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte("Value: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &syncedConfig{}
	st, err := store.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	h, err := NewHandle(path, st, providers.NewYAML())
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Register(h); err != nil {
		t.Fatalf("Register: %v", err)
	}
	r.TriggerLoadAll()
	base := cfg.loads.Load()

	if err := os.WriteFile(path, []byte("Value: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for cfg.loads.Load() == base {
		if time.Now().After(deadline) {
			t.Fatal("external edit never triggered a reload")
		}
		time.Sleep(10 * time.Millisecond)
	}
	r.TriggerLoadAll()
	if cfg.Value != 2 {
		t.Errorf("Value = %d after external edit, want 2", cfg.Value)
	}
}
