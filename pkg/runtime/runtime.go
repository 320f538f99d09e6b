package runtime

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/confsync/confsync/pkg/telemetry"
)

// saveDrainGrace bounds how long shutdown waits for the save consumer to
// exit before abandoning it.
const saveDrainGrace = 2 * time.Second

var (
	// ErrDuplicateHandle is returned when a handle is registered twice.
	ErrDuplicateHandle = errors.New("runtime: handle already registered")

	// ErrPathConflict is returned when another handle already owns the
	// same file path.
	ErrPathConflict = errors.New("runtime: path already registered")
)

// Runtime is the process-wide scheduler for registered config handles. It
// is constructed explicitly and shut down explicitly; components receive it
// by injection rather than through ambient globals.
type Runtime struct {
	log     zerolog.Logger
	metrics *telemetry.Metrics
	tracer  *telemetry.Tracer

	mu       sync.Mutex
	running  bool
	handles  map[string]*Handle
	byPath   map[string]*Handle
	watchers map[string]*dirWatcher
	loads    *loadExecutor
	saves    *saveQueue
}

// Option configures a Runtime at construction time.
type Option func(*Runtime)

// WithLogger routes runtime logging to log.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Runtime) { r.log = telemetry.ComponentLogger(log, "runtime") }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(r *Runtime) { r.metrics = m }
}

// WithTracer attaches a tracer emitting spans around load and save tasks.
func WithTracer(t *telemetry.Tracer) Option {
	return func(r *Runtime) { r.tracer = t }
}

// New creates a stopped runtime. Workers start lazily on the first
// registration.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		log:      zerolog.Nop(),
		handles:  make(map[string]*Handle),
		byPath:   make(map[string]*Handle),
		watchers: make(map[string]*dirWatcher),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a handle to the registry, starts the runtime if this is the
// first registration, attaches the directory watcher, and dispatches the
// initial load. Registering the same handle or the same path twice is an
// error.
func (r *Runtime) Register(h *Handle) error {
	r.mu.Lock()
	if _, dup := r.handles[h.id]; dup {
		r.mu.Unlock()
		return ErrDuplicateHandle
	}
	if _, dup := r.byPath[h.path]; dup {
		r.mu.Unlock()
		return ErrPathConflict
	}

	r.ensureRunningLocked()

	dir := watchKey(filepath.Dir(h.path))
	if _, ok := r.watchers[dir]; !ok {
		w, err := newDirWatcher(dir, r.dispatchEvent, r.log)
		if err != nil {
			r.mu.Unlock()
			return err
		}
		r.watchers[dir] = w
	}

	r.handles[h.id] = h
	r.byPath[h.path] = h
	r.rebindLocked()
	r.metrics.SetRegisteredConfigs(len(r.handles))
	r.submitLoadLocked(h)
	r.mu.Unlock()

	r.log.Info().Str("path", h.path).Str("handle", h.id).Msg("Config registered")
	return nil
}

// TriggerLoad dispatches one load task for h.
func (r *Runtime) TriggerLoad(h *Handle) {
	r.mu.Lock()
	r.submitLoadLocked(h)
	r.mu.Unlock()
}

// TriggerLoadAll dispatches a load task for every registered handle and
// blocks until all of them finish.
func (r *Runtime) TriggerLoadAll() {
	r.mu.Lock()
	var pending []<-chan struct{}
	for _, h := range r.handles {
		if c := r.submitLoadLocked(h); c != nil {
			pending = append(pending, c)
		}
	}
	r.mu.Unlock()

	for _, c := range pending {
		<-c
	}
}

// Save writes h's instance to disk synchronously. The write counter is
// incremented first so the resulting file-system event is recognized as
// self-caused and suppressed; a save that never reached the provider
// retracts the announcement, since no event will arrive to balance it.
func (r *Runtime) Save(h *Handle) error {
	_, span := r.tracer.StartTask(context.Background(), "config.save", h.path)
	start := time.Now()

	h.announceWrite()
	err := saveHandle(h)
	if err != nil {
		h.retractWrite()
		r.log.Error().Err(err).Str("path", h.path).Msg("Config save failed")
		r.metrics.RecordSave("error", time.Since(start))
	} else {
		r.metrics.RecordSave("ok", time.Since(start))
	}

	telemetry.EndTask(span, err)
	return err
}

// SaveAll saves every registered handle sequentially and returns the joined
// errors.
func (r *Runtime) SaveAll() error {
	var errs []error
	for _, h := range r.snapshot() {
		if err := r.Save(h); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Shutdown disables all watchers, drains pending loads, stops the save
// consumer with a bounded grace period, and performs one final synchronous
// SaveAll so no pending mutation is lost. Shutdown never panics or returns;
// it is best-effort cleanup at process exit.
func (r *Runtime) Shutdown() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	watchers := r.watchers
	r.watchers = make(map[string]*dirWatcher)
	for _, h := range r.handles {
		h.bindDirty(nil)
	}
	loads, saves := r.loads, r.saves
	r.mu.Unlock()

	for _, w := range watchers {
		w.close()
	}
	loads.drain()
	if !saves.stopAndWait(saveDrainGrace) {
		r.log.Warn().Msg("Save worker did not exit within grace period, abandoning")
	}

	for _, h := range r.snapshot() {
		if err := r.Save(h); err != nil {
			r.log.Error().Err(err).Str("path", h.path).Msg("Final save failed during shutdown")
		}
	}
	r.log.Info().Msg("Config runtime stopped")
}

// ensureRunningLocked starts the two workers on the Stopped -> Running
// transition. Caller holds r.mu.
func (r *Runtime) ensureRunningLocked() {
	if r.running {
		return
	}
	r.loads = newLoadExecutor()
	r.saves = newSaveQueue(r.log, r.metrics)
	r.running = true
	r.log.Info().Msg("Config runtime started")
}

// rebindLocked rebinds every handle's dirty callback to the current save
// queue. Called whenever the registry changes; caller holds r.mu.
func (r *Runtime) rebindLocked() {
	for _, h := range r.handles {
		h := h
		h.bindDirty(func() {
			r.saves.enqueue(func() error { return r.Save(h) })
		})
	}
}

// submitLoadLocked dispatches a load task for h onto the load executor.
// Caller holds r.mu; holding it across the submit is safe because load
// tasks never take the runtime lock, so the executor always makes progress.
func (r *Runtime) submitLoadLocked(h *Handle) <-chan struct{} {
	if !r.running {
		return nil
	}
	return r.loads.submit(func() { r.runLoad(h) })
}

func (r *Runtime) runLoad(h *Handle) {
	_, span := r.tracer.StartTask(context.Background(), "config.load", h.path)
	start := time.Now()

	err := loadHandle(h)
	if err != nil {
		r.log.Error().Err(err).Str("path", h.path).Msg("Config load failed")
		r.metrics.RecordLoad("error", time.Since(start))
	} else {
		r.log.Debug().Str("path", h.path).Msg("Config loaded")
		r.metrics.RecordLoad("ok", time.Since(start))
	}

	telemetry.EndTask(span, err)
}

// loadHandle runs one store load, converting a panic in a decode path or an
// AfterLoad hook into an error so a bad config type cannot kill the load
// executor goroutine.
func loadHandle(h *Handle) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("load panicked: %v", rec)
		}
	}()
	return h.store.ReadFrom(h.provider, h.path)
}

// saveHandle mirrors loadHandle for the write path; shutdown's final saves
// must never panic.
func saveHandle(h *Handle) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("save panicked: %v", rec)
		}
	}()
	return h.store.WriteTo(h.provider, h.path)
}

// dispatchEvent is the watcher callback. It does only cheap bookkeeping on
// the notification-delivery goroutine: resolve the handle, consume the
// event against its write counter, and dispatch a load when the change was
// external.
func (r *Runtime) dispatchEvent(ev fsnotify.Event) {
	name := filepath.Clean(ev.Name)

	r.mu.Lock()
	h := r.byPath[name]
	if h == nil {
		// The watcher reports resolved paths; a handle registered through
		// a symlinked directory needs the identity-based match.
		key := watchKey(filepath.Dir(name))
		base := filepath.Base(name)
		for _, cand := range r.byPath {
			if filepath.Base(cand.path) == base && watchKey(filepath.Dir(cand.path)) == key {
				h = cand
				break
			}
		}
	}
	running := r.running
	if h == nil || !running {
		r.mu.Unlock()
		r.metrics.RecordWatchEvent("ignored")
		return
	}

	if !h.observeEvent() {
		r.mu.Unlock()
		r.metrics.RecordWatchEvent("suppressed")
		return
	}
	r.submitLoadLocked(h)
	r.mu.Unlock()

	r.metrics.RecordWatchEvent("reload")
	r.log.Debug().Str("path", h.path).Str("op", ev.Op.String()).Msg("External config change detected")
}

func (r *Runtime) snapshot() []*Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Handle, 0, len(r.handles))
	for _, h := range r.handles {
		out = append(out, h)
	}
	return out
}
