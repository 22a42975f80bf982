package blockchain

import "crypto/sha256"

// MerkleRoot computes the Merkle root over a set of leaf hashes by
// pairwise SHA-256 concatenation, duplicating the last node whenever a
// level has an odd count (spec.md §3). Grounded on the teacher's
// merkle.go, generalized from raw [][]byte data to transaction hashes —
// the root is recomputed on demand rather than stored as a Block field,
// since spec.md §3 doesn't list it among Block's persisted fields.
func MerkleRoot(hashes [][]byte) []byte {
	if len(hashes) == 0 {
		empty := sha256.Sum256(nil)
		return empty[:]
	}

	level := make([][]byte, len(hashes))
	copy(level, hashes)

	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}
		var next [][]byte
		for i := 0; i < len(level); i += 2 {
			sum := sha256.Sum256(append(append([]byte{}, level[i]...), level[i+1]...))
			next = append(next, sum[:])
		}
		level = next
	}
	return level[0]
}
