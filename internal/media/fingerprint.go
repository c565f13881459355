package media

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentFingerprint hashes raw image bytes for score-cache keying. Byte
// identical files share a fingerprint across paths, jobs, and process runs.
// Distinct from the perceptual fingerprint used for near-duplicate clustering.
func ContentFingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
