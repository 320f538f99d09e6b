package runtime

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// dirWatcher owns the single fsnotify watcher for one directory. All
// handles whose files live in that directory share it; per-file resolution
// happens in the runtime's dispatch callback.
type dirWatcher struct {
	dir  string
	fw   *fsnotify.Watcher
	done chan struct{}
}

func newDirWatcher(dir string, dispatch func(fsnotify.Event), log zerolog.Logger) (*dirWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("runtime: create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("runtime: watch %s: %w", dir, err)
	}
	w := &dirWatcher{
		dir:  dir,
		fw:   fw,
		done: make(chan struct{}),
	}
	go w.run(dispatch, log)
	return w, nil
}

func (w *dirWatcher) run(dispatch func(fsnotify.Event), log zerolog.Logger) {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			dispatch(event)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Str("dir", w.dir).Msg("Watcher error")
		}
	}
}

// close disables the watcher and waits for its event loop to exit.
func (w *dirWatcher) close() {
	_ = w.fw.Close()
	<-w.done
}

// watchKey normalizes a directory to its identity: two path strings naming
// the same directory (through symlinks or redundant elements) map to one
// key, so they share one watcher.
func watchKey(dir string) string {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		return resolved
	}
	return filepath.Clean(dir)
}
