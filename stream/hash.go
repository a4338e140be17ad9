package stream

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/Neumenon/unserial/unserial"
)

// Fingerprint computes sha256(Canonical(value)).
//
// Two values share a fingerprint exactly when their canonical dumps match,
// so it identifies equal payloads regardless of how they were serialized
// (for instance r: back-references versus repeated literals).
func Fingerprint(value *unserial.Value) [32]byte {
	return sha256.Sum256([]byte(unserial.Canonical(value)))
}

// HashToHex converts a 32-byte hash to lowercase hex string.
func HashToHex(h [32]byte) string {
	return hex.EncodeToString(h[:])
}

// HexToHash parses a 64-character hex string to a 32-byte hash.
func HexToHash(s string) ([32]byte, bool) {
	var h [32]byte
	if len(s) != 64 {
		return h, false
	}
	if _, err := hex.Decode(h[:], []byte(s)); err != nil {
		return h, false
	}
	return h, true
}
