// Package analyzer fuses downloaded images with their trigger-time
// telemetry and writes the archive forms.
package analyzer
