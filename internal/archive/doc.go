// Package archive owns the persisted record forms: the flat CSV log, the
// cumulative JSON archive, and the latest pointer with its fingerprint
// reconciliation.
package archive
