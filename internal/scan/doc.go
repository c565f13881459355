// Package scan manages the lifecycle of scan jobs: a queued-running-terminal
// state machine, a bounded worker pool, a capped history of finished jobs
// with resource teardown on eviction, and the post-completion selection
// toggle.
package scan
