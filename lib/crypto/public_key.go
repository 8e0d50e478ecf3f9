package crypto

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

const PublicKeySize = 32

var (
	ErrPublicKeySize = errors.New("public key must be 32 bytes")
	ErrEmptyString   = errors.New("public key string is empty")
)

// PublicKey is a 32 byte account address; either an Ed25519 point or a program derived address (off curve)
type PublicKey [PublicKeySize]byte

// NewPublicKeyFromBytes() copies a 32 byte slice into a PublicKey
func NewPublicKeyFromBytes(bz []byte) (pk PublicKey, err error) {
	if len(bz) != PublicKeySize {
		return pk, fmt.Errorf("%w: got %d", ErrPublicKeySize, len(bz))
	}
	copy(pk[:], bz)
	return
}

// NewPublicKeyFromString() decodes a base58 address
func NewPublicKeyFromString(s string) (pk PublicKey, err error) {
	if s == "" {
		return pk, ErrEmptyString
	}
	bz, err := base58.Decode(s)
	if err != nil {
		return pk, err
	}
	return NewPublicKeyFromBytes(bz)
}

// MustPublicKeyFromString() decodes a base58 address and panics on failure; only for constants
func MustPublicKeyFromString(s string) PublicKey {
	pk, err := NewPublicKeyFromString(s)
	if err != nil {
		panic(err)
	}
	return pk
}

// NewRandomPublicKey() returns a random Ed25519 point; the private scalar is discarded
func NewRandomPublicKey() (pk PublicKey) {
	var seed [64]byte
	if _, err := rand.Read(seed[:]); err != nil {
		panic(err)
	}
	s, err := edwards25519.NewScalar().SetUniformBytes(seed[:])
	if err != nil {
		panic(err)
	}
	copy(pk[:], new(edwards25519.Point).ScalarBaseMult(s).Bytes())
	return
}

// String() returns the base58 form
func (p PublicKey) String() string { return base58.Encode(p[:]) }

// Bytes() returns a copy of the underlying bytes
func (p PublicKey) Bytes() []byte { return bytes.Clone(p[:]) }

// Equals() compares two public keys
func (p PublicKey) Equals(o PublicKey) bool { return p == o }

// IsZero() returns true for the all-zero key
func (p PublicKey) IsZero() bool { return p == PublicKey{} }

// MarshalJSON() encodes the key as a base58 string
func (p PublicKey) MarshalJSON() ([]byte, error) { return json.Marshal(p.String()) }

// UnmarshalJSON() decodes a base58 string
func (p *PublicKey) UnmarshalJSON(bz []byte) error {
	var s string
	if err := json.Unmarshal(bz, &s); err != nil {
		return err
	}
	if s == "" {
		*p = PublicKey{}
		return nil
	}
	pk, err := NewPublicKeyFromString(s)
	if err != nil {
		return err
	}
	*p = pk
	return nil
}
