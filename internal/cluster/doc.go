// Package cluster groups near-duplicate candidates using perceptual hash
// distance.
//
// Fingerprints are 64-bit perceptual hashes compared by Hamming distance. The
// clusterer makes one greedy pass in arrival order, comparing each candidate
// against the most recent representative of each open cluster; the comparison
// window is configurable so behaviour can be pinned exactly in tests. Within a
// cluster a bounded number of members survive to scoring.
package cluster
