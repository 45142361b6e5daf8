// Package indi reads mount and weather telemetry from an INDI server via
// the indi_getprop command line tool.
package indi
