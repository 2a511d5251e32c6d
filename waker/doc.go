// Package waker implements the waker page: a cache-line-packed, 64-slot
// notification/completion/drop bitset shared between a cooperative task
// scheduler and any number of external producers (I/O completions, timers,
// other tasks).
//
// A Page tracks, per slot, three independent bits: notified (a task should
// be polled), completed (the task has finished and must not be polled
// again), and dropped (the task was cancelled and the scheduler must
// reclaim its slot). All bitmap operations are lock-free atomics; only the
// scheduler is expected to call TakeNotified/TakeDropped, but Notify,
// MarkCompleted, and MarkDropped may be called concurrently from any
// goroutine.
//
// Each Page is exactly 64 bytes and 64-byte aligned, so a pointer to byte
// offset N within a page (0 <= N < 64) identifies slot N: the low 6 bits of
// the address give the slot, and masking them off recovers the page base.
// This is what makes a [Notifier] a single machine word instead of a
// two-word (page, slot) pair.
package waker
