// Package services defines the shared error taxonomy consumed by the scan
// pipeline, the print service, and the HTTP layer.
//
// Sentinel markers (validation, configuration, not-found, rejected, transient)
// classify failures so callers can decide between retrying, surfacing a
// structured error, or returning a 4xx response without inspecting message
// text. The Wrap helper stamps component and operation context onto errors in
// a consistent shape.
package services
