// Package runtime schedules background loads and saves for registered
// configuration handles and keeps them synchronized with external file
// edits.
//
// One Runtime owns a single-goroutine load executor, a single save-consumer
// goroutine draining a blocking queue of save closures, and one fsnotify
// watcher per watched directory (keyed by symlink-resolved directory path,
// shared by every handle in that directory). Watcher callbacks do only cheap
// bookkeeping: they decrement the handle's write counter and, when the event
// was not a self-write, dispatch a load task.
//
// # Write counter protocol
//
// Each handle carries a signed atomic counter starting at zero. A save
// increments it before touching the disk, pre-announcing the notification
// the write will cause. Each observed event for the handle's path decrements
// it. A decrement that lands below zero means the change was not accounted
// for by an in-flight self-save, so a load is dispatched and the counter is
// clamped back to zero with a compare-and-swap loop. The clamp absorbs
// races between bursts of quick writes and their (possibly coalesced, lost,
// or duplicated) notifications: the protocol guarantees that unaccounted
// external changes eventually trigger a load, not that event counts match
// exactly.
package runtime
