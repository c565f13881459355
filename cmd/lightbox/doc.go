// Command lightbox is the photo curation CLI. It runs the daemon in the
// foreground (serve) and drives it over the HTTP API: submitting scans,
// inspecting shortlists, marking selections, and ordering prints.
package main
