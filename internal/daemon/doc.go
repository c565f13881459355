// Package daemon hosts the long-running lightbox process: the scan registry,
// thumbnail store, print service, and the HTTP API the CLI talks to, guarded
// by a single-instance lock file.
package daemon
