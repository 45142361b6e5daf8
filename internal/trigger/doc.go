// Package trigger drives the GPIO shutter line and stamps each exposure
// with its trigger-time telemetry.
package trigger
