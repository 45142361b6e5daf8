// Package metadata decodes camera metadata embedded in captured image
// files.
package metadata
