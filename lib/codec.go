package lib

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/canopy-network/amm/lib/crypto"
	"github.com/holiman/uint256"
)

/*
	Account data is a fixed little-endian layout, the same way on-chain programs lay out their state:
	u8 and u64 fields, 32 byte public keys and 32 byte (u256) counters packed back to back with no padding.
*/

var errShortBuffer = errors.New("buffer too short")

// BinaryWriter appends little-endian fields to a buffer
type BinaryWriter struct {
	buf []byte
}

// NewBinaryWriter() creates a writer with an initial capacity hint
func NewBinaryWriter(capacity int) *BinaryWriter {
	return &BinaryWriter{buf: make([]byte, 0, capacity)}
}

func (w *BinaryWriter) WriteU8(v uint8) *BinaryWriter { w.buf = append(w.buf, v); return w }

func (w *BinaryWriter) WriteU64(v uint64) *BinaryWriter {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, v)
	return w
}

func (w *BinaryWriter) WriteBool(v bool) *BinaryWriter {
	if v {
		return w.WriteU8(1)
	}
	return w.WriteU8(0)
}

func (w *BinaryWriter) WritePublicKey(pk crypto.PublicKey) *BinaryWriter {
	w.buf = append(w.buf, pk[:]...)
	return w
}

// WriteU256() writes a 256 bit counter as 32 little-endian bytes; nil is written as zero
func (w *BinaryWriter) WriteU256(v *uint256.Int) *BinaryWriter {
	if v == nil {
		v = new(uint256.Int)
	}
	be := v.Bytes32()
	for i := len(be) - 1; i >= 0; i-- {
		w.buf = append(w.buf, be[i])
	}
	return w
}

// Bytes() returns the encoded buffer
func (w *BinaryWriter) Bytes() []byte { return w.buf }

// BinaryReader consumes little-endian fields; the first failure is sticky and reported by Err()
type BinaryReader struct {
	bz  []byte
	off int
	err error
}

// NewBinaryReader() creates a reader over bz
func NewBinaryReader(bz []byte) *BinaryReader { return &BinaryReader{bz: bz} }

// take() returns the next n bytes or records a short buffer error
func (r *BinaryReader) take(n int) []byte {
	if r.err != nil {
		return make([]byte, n)
	}
	if r.off+n > len(r.bz) {
		r.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", errShortBuffer, n, r.off, len(r.bz))
		return make([]byte, n)
	}
	out := r.bz[r.off : r.off+n]
	r.off += n
	return out
}

func (r *BinaryReader) ReadU8() uint8 { return r.take(1)[0] }

func (r *BinaryReader) ReadU64() uint64 { return binary.LittleEndian.Uint64(r.take(8)) }

func (r *BinaryReader) ReadBool() bool { return r.ReadU8() != 0 }

func (r *BinaryReader) ReadPublicKey() (pk crypto.PublicKey) {
	copy(pk[:], r.take(crypto.PublicKeySize))
	return
}

func (r *BinaryReader) ReadU256() *uint256.Int {
	le := r.take(32)
	be := make([]byte, 32)
	for i := range le {
		be[31-i] = le[i]
	}
	return new(uint256.Int).SetBytes32(be)
}

// Remaining() returns the unread byte count
func (r *BinaryReader) Remaining() int { return len(r.bz) - r.off }

// Err() returns the first decoding failure, if any
func (r *BinaryReader) Err() ErrorI {
	if r.err != nil {
		return ErrUnmarshal(r.err)
	}
	return nil
}

// Finish() returns Err() or an error if unread bytes remain
func (r *BinaryReader) Finish() ErrorI {
	if err := r.Err(); err != nil {
		return err
	}
	if r.Remaining() != 0 {
		return ErrUnmarshal(fmt.Errorf("%d trailing bytes", r.Remaining()))
	}
	return nil
}
