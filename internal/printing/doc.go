// Package printing turns completed scan selections into remote print orders:
// validation against the owning scan, asset publication, submission with
// bounded retry, redacted rejection diagnostics, and lazy provider status
// refresh.
package printing
