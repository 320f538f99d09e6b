package runtime

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/confsync/confsync/pkg/telemetry"
)

// failurePause is how long the save consumer sleeps after a failed closure,
// so a persistently failing save does not spin the thread.
const failurePause = time.Second

// saveQueue is the blocking FIFO of save closures consumed sequentially by
// the single save goroutine.
type saveQueue struct {
	tasks   chan func() error
	stop    chan struct{}
	done    chan struct{}
	log     zerolog.Logger
	metrics *telemetry.Metrics
}

func newSaveQueue(log zerolog.Logger, metrics *telemetry.Metrics) *saveQueue {
	q := &saveQueue{
		tasks:   make(chan func() error, 128),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		log:     log,
		metrics: metrics,
	}
	go q.run()
	return q
}

func (q *saveQueue) run() {
	defer close(q.done)
	for {
		select {
		case <-q.stop:
			return
		case fn := <-q.tasks:
			q.metrics.SetSaveQueueDepth(len(q.tasks))
			if err := call(fn); err != nil {
				q.log.Error().Err(err).Msg("Background save failed")
				q.pause()
			}
		}
	}
}

// pause sleeps for failurePause unless the queue is stopped first.
func (q *saveQueue) pause() {
	select {
	case <-q.stop:
	case <-time.After(failurePause):
	}
}

// enqueue blocks until the closure is accepted. Closures enqueued after
// stopAndWait may never run; shutdown's final SaveAll covers them.
func (q *saveQueue) enqueue(fn func() error) {
	select {
	case <-q.stop:
	case q.tasks <- fn:
		q.metrics.SetSaveQueueDepth(len(q.tasks))
	}
}

// stopAndWait signals the consumer to exit and waits up to grace for it.
// Returns false when the consumer had to be abandoned.
func (q *saveQueue) stopAndWait(grace time.Duration) bool {
	close(q.stop)
	select {
	case <-q.done:
		return true
	case <-time.After(grace):
		return false
	}
}

// call invokes one save closure, converting a panic into an error so a bad
// closure cannot kill the consumer goroutine.
func call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("save closure panicked: %v", r)
		}
	}()
	return fn()
}
