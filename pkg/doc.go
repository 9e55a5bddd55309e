// Package pkg groups the transaction commit core's ambient support packages.
//
// # Packages
//
//   - config  – viper-based loading of the core's tunables
//   - errors  – structured *Error type and the commit core's error codes
//   - metrics – Prometheus implementation of the Counters collaborator
package pkg
