package driver

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest is a SHA-256 content hash.
type Digest [sha256.Size]byte

// String renders d as lowercase hex.
func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// IsZero reports whether d was never computed.
func (d Digest) IsZero() bool { return d == Digest{} }

// HashBytes hashes data.
func HashBytes(data []byte) Digest { return sha256.Sum256(data) }

// combineDigest: H(content || part1 || part2 ...). Parts are length-prefixed
// so that ("ab", "c") and ("a", "bc") differ.
func combineDigest(content Digest, parts ...string) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	var n [4]byte
	for _, p := range parts {
		l := len(p)
		n[0], n[1], n[2], n[3] = byte(l>>24), byte(l>>16), byte(l>>8), byte(l)
		_, _ = h.Write(n[:])
		_, _ = h.Write([]byte(p))
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
