// Package capture defines the data types shared across the pipeline: the
// per-shot Record, the telemetry Snapshot frozen at trigger time, and the
// FIFO Queue used for the correlation and analysis hand-offs.
package capture
