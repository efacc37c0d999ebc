package migrate

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Hash is a SHA-256 digest of a migration script's content. Hashes are what
// the engine compares to detect drift between local scripts and what the
// ledger recorded when a migration was applied.
type Hash [sha256.Size]byte

// NewHash digests the given script content.
func NewHash(content []byte) Hash {
	return sha256.Sum256(content)
}

// HashFromBytes converts a raw byte slice into a Hash. The slice must be
// exactly 32 bytes long; anything else is rejected rather than truncated or
// padded.
func HashFromBytes(raw []byte) (Hash, error) {
	if len(raw) != sha256.Size {
		return Hash{}, fmt.Errorf("expected exactly %d hash bytes, got %d", sha256.Size, len(raw))
	}

	var h Hash
	copy(h[:], raw)
	return h, nil
}

// Bytes returns the digest as a slice, suitable for binding to a bytea
// column.
func (h Hash) Bytes() []byte {
	return h[:]
}

// Equal reports whether two hashes are identical.
func (h Hash) Equal(other Hash) bool {
	return h == other
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}
