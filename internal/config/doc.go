// Package config loads, normalizes, and validates shutterpro configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// engine and CLI need: image directories, GPIO trigger timing, wireless card
// polling, INDI device names, and solver settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors. The
// resulting value is immutable by convention; components receive it at
// construction time and never write to it.
package config
