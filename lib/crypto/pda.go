package crypto

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
)

/*
	Program derived addresses (PDAs) are addresses computed from a program id and a list of seeds.
	They are deliberately off the Ed25519 curve so no private key can ever sign for them; only the
	owning program may 'sign' by re-supplying the seeds.

	address = sha256(seed_0 || ... || seed_n || programId || "ProgramDerivedAddress")
*/

const (
	MaxSeeds      = 16 // maximum number of seeds for a single derivation
	MaxSeedLength = 32 // maximum byte length of a single seed
)

var pdaMarker = []byte("ProgramDerivedAddress")

var (
	ErrMaxSeeds       = errors.New("too many seeds")
	ErrMaxSeedLength  = errors.New("seed exceeds the maximum length")
	ErrOnCurve        = errors.New("derived address is on the ed25519 curve")
	ErrNoViableBump   = errors.New("unable to find a viable program address bump seed")
	ErrNonceExhausted = errors.New("nonce search space exhausted")
)

// IsOnCurve() reports whether the 32 bytes decode to a valid Ed25519 point
func IsOnCurve(bz []byte) bool {
	if len(bz) != PublicKeySize {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(bz)
	return err == nil
}

// CreateProgramAddress() derives an address from seeds and the program id; fails if the result is on curve
func CreateProgramAddress(seeds [][]byte, programId PublicKey) (pk PublicKey, err error) {
	if len(seeds) > MaxSeeds {
		return pk, ErrMaxSeeds
	}
	parts := make([][]byte, 0, len(seeds)+2)
	for _, s := range seeds {
		if len(s) > MaxSeedLength {
			return pk, fmt.Errorf("%w: %d bytes", ErrMaxSeedLength, len(s))
		}
		parts = append(parts, s)
	}
	parts = append(parts, programId[:], pdaMarker)
	// hash the seeds, program and marker
	digest := HashParts(parts...)
	if IsOnCurve(digest) {
		return pk, ErrOnCurve
	}
	copy(pk[:], digest)
	return
}

// FindProgramAddress() searches bump seeds from 255 down to 0 and returns the first off curve address
func FindProgramAddress(seeds [][]byte, programId PublicKey) (pk PublicKey, bump uint8, err error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	for b := 255; b >= 0; b-- {
		withBump[len(seeds)] = []byte{byte(b)}
		pk, err = CreateProgramAddress(withBump, programId)
		if err == nil {
			return pk, uint8(b), nil
		}
		// malformed seeds will fail on every bump
		if !errors.Is(err, ErrOnCurve) {
			return pk, 0, err
		}
	}
	return pk, 0, ErrNoViableBump
}

// FindProgramAddressAscending() searches nonces 0..maxNonce and returns the smallest one producing an off curve
// address; the nonce is appended to the seeds by the caller supplied encode function
func FindProgramAddressAscending(seeds [][]byte, programId PublicKey, maxNonce uint64, encode func(nonce uint64) []byte) (pk PublicKey, nonce uint64, err error) {
	withNonce := make([][]byte, len(seeds)+1)
	copy(withNonce, seeds)
	for nonce = 0; ; nonce++ {
		withNonce[len(seeds)] = encode(nonce)
		pk, err = CreateProgramAddress(withNonce, programId)
		if err == nil {
			return pk, nonce, nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return pk, 0, err
		}
		if nonce == maxNonce {
			return pk, 0, ErrNonceExhausted
		}
	}
}
