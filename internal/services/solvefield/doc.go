// Package solvefield wraps the astrometry.net solve-field binary for
// plate-solving captured images against the star catalog.
package solvefield
