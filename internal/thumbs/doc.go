// Package thumbs renders and serves job-scoped shortlist thumbnails. Files
// live under the configured data directory and are torn down when the owning
// scan job leaves history.
package thumbs
