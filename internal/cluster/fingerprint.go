package cluster

import (
	"fmt"
	"image"
	"math/bits"

	"github.com/corona10/goimagehash"
)

// Fingerprint is a 64-bit perceptual hash. Used only for distance
// comparison between images, never as an identity.
type Fingerprint uint64

// ComputeFingerprint derives the perceptual hash of a decoded image.
func ComputeFingerprint(img image.Image) (Fingerprint, error) {
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return 0, fmt.Errorf("perceptual hash: %w", err)
	}
	return Fingerprint(hash.GetHash()), nil
}

// Distance returns the Hamming distance to another fingerprint in bits.
func (f Fingerprint) Distance(other Fingerprint) int {
	return bits.OnesCount64(uint64(f) ^ uint64(other))
}

// String renders the fingerprint as 16 hex digits for diagnostics.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}
