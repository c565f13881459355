// Package api defines the wire types shared by the daemon's HTTP surface and
// the CLI client, plus converters into internal request types.
package api
