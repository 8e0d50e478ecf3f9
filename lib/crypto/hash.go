package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
)

const (
	HashSize = sha256.Size
)

/*
	Hash takes an input message and returns a fixed-size digest unique to the input.
	Program derived addresses are sha256 digests over their seeds, so every address in the registry flows through here.
*/

// Hasher() returns the global hashing algorithm used
func Hasher() hash.Hash { return sha256.New() }

// Hash() executes the global hashing algorithm on input bytes
func Hash(msg []byte) []byte {
	h := sha256.Sum256(msg)
	return h[:]
}

// HashParts() hashes the concatenation of the parts without allocating the joined slice
func HashParts(parts ...[]byte) []byte {
	h := Hasher()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

// HashString() returns the hex byte version of a hash
func HashString(msg []byte) string { return hex.EncodeToString(Hash(msg)) }
