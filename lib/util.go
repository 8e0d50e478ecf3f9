package lib

import (
	"encoding/json"

	"github.com/canopy-network/amm/lib/crypto"
)

/* This file contains shared helpers for keys, json and addresses used throughout the app */

// MarshalJSON() serializes a message into a JSON byte slice
func MarshalJSON(message any) ([]byte, ErrorI) {
	bz, err := json.Marshal(message)
	if err != nil {
		return nil, ErrJSONMarshal(err)
	}
	return bz, nil
}

// MarshalJSONIndent() serializes a message into an indented JSON byte slice
func MarshalJSONIndent(message any) ([]byte, ErrorI) {
	bz, err := json.MarshalIndent(message, "", "  ")
	if err != nil {
		return nil, ErrJSONMarshal(err)
	}
	return bz, nil
}

// MarshalJSONIndentString() serializes a message into an indented JSON string
func MarshalJSONIndentString(message any) (string, ErrorI) {
	bz, err := MarshalJSONIndent(message)
	return string(bz), err
}

// UnmarshalJSON() deserializes a JSON byte slice into the specified object
func UnmarshalJSON(bz []byte, ptr any) ErrorI {
	if err := json.Unmarshal(bz, ptr); err != nil {
		return ErrJSONUnmarshal(err)
	}
	return nil
}

// PublicKeyFromString() decodes a base58 address into a public key
func PublicKeyFromString(s string) (crypto.PublicKey, ErrorI) {
	pk, err := crypto.NewPublicKeyFromString(s)
	if err != nil {
		return pk, ErrStringToBytes(err)
	}
	return pk, nil
}

// Append() returns a new slice with b appended to a, never aliasing a
func Append(a, b []byte) []byte {
	out := make([]byte, len(a)+len(b))
	copy(out, a)
	copy(out[len(a):], b)
	return out
}

// JoinLenPrefix() appends the items together separated by a single byte to represent the length of the segment
func JoinLenPrefix(toAppend ...[]byte) (res []byte) {
	// for each item to append
	for _, item := range toAppend {
		if item == nil {
			continue
		}
		// store the length of the segment in a single byte
		length := []byte{byte(len(item))}
		// append to the reset of the segment
		res = append(append(res, length...), item...)
	}
	return
}

// DecodeLengthPrefixed() decodes a key that is delimited by the length of the segment in a single byte
func DecodeLengthPrefixed(key []byte) (segments [][]byte, err ErrorI) {
	for i := 0; i < len(key); {
		// read the length prefix
		length := int(key[i])
		i++
		if i+length > len(key) {
			return nil, ErrInvalidKey()
		}
		segments = append(segments, key[i:i+length])
		i += length
	}
	return
}
