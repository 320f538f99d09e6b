package runtime

// loadExecutor runs load tasks one at a time on a dedicated goroutine, so
// loads never overlap each other regardless of how many watchers or callers
// dispatch them.
type loadExecutor struct {
	tasks chan func()
	done  chan struct{}
}

func newLoadExecutor() *loadExecutor {
	e := &loadExecutor{
		tasks: make(chan func(), 64),
		done:  make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *loadExecutor) run() {
	defer close(e.done)
	for fn := range e.tasks {
		fn()
	}
}

// submit enqueues one task and returns a channel closed when it completes.
// The caller must guarantee the executor has not been drained.
func (e *loadExecutor) submit(fn func()) <-chan struct{} {
	completed := make(chan struct{})
	e.tasks <- func() {
		defer close(completed)
		fn()
	}
	return completed
}

// drain stops intake and blocks until every pending task has run.
func (e *loadExecutor) drain() {
	close(e.tasks)
	<-e.done
}
