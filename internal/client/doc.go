// Package client is the CLI-side HTTP client for the daemon API.
package client
