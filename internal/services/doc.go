// Package services holds the shared error taxonomy and the clients for the
// external collaborators: the INDI telemetry server, the wireless card's HTTP
// interface, and the plate-solver binary.
package services
