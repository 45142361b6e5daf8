// Package engine orchestrates a capture session: trigger cadence, worker
// lifecycle, queue draining, and the single-instance lock.
package engine
