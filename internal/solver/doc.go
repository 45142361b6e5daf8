// Package solver annotates archived captures with plate-solve results,
// guarding the latest pointer against stale overwrites.
package solver
