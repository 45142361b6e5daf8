// Package preflight validates the environment before a capture session:
// directories, disk space, the remote store, and external binaries.
package preflight
