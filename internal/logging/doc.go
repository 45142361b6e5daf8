// Package logging builds the slog loggers used across the pipeline.
//
// Two handler formats are supported: a human-oriented console handler that
// renders one line per event with the component name inlined, and a JSON
// handler for machine consumption. Attribute helper functions and shared
// field-name constants keep log keys consistent between the trigger,
// downloader, analyzer, and solver components.
package logging
