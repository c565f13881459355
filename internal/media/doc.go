// Package media supplies candidate images to the scan pipeline.
//
// It enumerates JPEG files beneath a directory in deterministic order,
// decodes them, and resolves a capture timestamp from EXIF metadata with a
// file-mtime fallback. It also computes the byte-level content fingerprint
// used to key the aesthetic score cache.
package media
