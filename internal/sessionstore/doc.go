// Package sessionstore journals every capture of a session in SQLite so
// the status command can report pipeline progress across processes.
package sessionstore
