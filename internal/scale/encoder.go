package scale

import (
	"encoding/binary"
	"math/big"
	"math/bits"
)

var (
	two127  = new(big.Int).Lsh(big.NewInt(1), 127)
	two128  = new(big.Int).Lsh(big.NewInt(1), 128)
	maxU128 = new(big.Int).Sub(two128, big.NewInt(1))
	minI128 = new(big.Int).Neg(two127)
	maxI128 = new(big.Int).Sub(two127, big.NewInt(1))
	bigZero = big.NewInt(0)
)

// Encoder appends SCALE-encoded values to an in-memory buffer.
// The zero value is ready to use.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty encoder.
func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 64)}
}

// Bytes returns the encoded output. The slice aliases the encoder's buffer.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Raw appends p verbatim, without a length prefix.
func (e *Encoder) Raw(p []byte) {
	e.buf = append(e.buf, p...)
}

// Bool writes 0x01 for true and 0x00 for false.
func (e *Encoder) Bool(v bool) {
	if v {
		e.buf = append(e.buf, 1)
		return
	}
	e.buf = append(e.buf, 0)
}

// U8 writes a single byte.
func (e *Encoder) U8(v uint8) {
	e.buf = append(e.buf, v)
}

// I8 writes a signed byte in two's complement.
func (e *Encoder) I8(v int8) {
	e.buf = append(e.buf, byte(v))
}

// U32 writes a little-endian uint32.
func (e *Encoder) U32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

// U64 writes a little-endian uint64.
func (e *Encoder) U64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

// U128 writes v as 16 little-endian bytes.
// Returns ErrOutOfRange if v is negative or does not fit in 128 bits.
func (e *Encoder) U128(v *big.Int) error {
	if v == nil || v.Cmp(bigZero) < 0 || v.Cmp(maxU128) > 0 {
		return ErrOutOfRange
	}
	e.put128(v)
	return nil
}

// I128 writes v as 16 little-endian bytes in two's complement.
// Returns ErrOutOfRange if v is outside [-2^127, 2^127).
func (e *Encoder) I128(v *big.Int) error {
	if v == nil || v.Cmp(minI128) < 0 || v.Cmp(maxI128) > 0 {
		return ErrOutOfRange
	}
	if v.Sign() < 0 {
		e.put128(new(big.Int).Add(v, two128))
		return nil
	}
	e.put128(v)
	return nil
}

func (e *Encoder) put128(v *big.Int) {
	var be [16]byte
	v.FillBytes(be[:])
	for i := 15; i >= 0; i-- {
		e.buf = append(e.buf, be[i])
	}
}

// Compact writes v using the SCALE compact integer encoding.
func (e *Encoder) Compact(v uint64) {
	switch {
	case v < 1<<6:
		e.buf = append(e.buf, byte(v<<2))
	case v < 1<<14:
		e.buf = binary.LittleEndian.AppendUint16(e.buf, uint16(v<<2)|0b01)
	case v < 1<<30:
		e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(v<<2)|0b10)
	default:
		n := (bits.Len64(v) + 7) / 8
		e.buf = append(e.buf, byte((n-4)<<2)|0b11)
		for i := 0; i < n; i++ {
			e.buf = append(e.buf, byte(v>>(8*i)))
		}
	}
}

// String writes a compact byte length followed by the string's bytes.
func (e *Encoder) String(s string) {
	e.Compact(uint64(len(s)))
	e.buf = append(e.buf, s...)
}

// Blob writes a compact length followed by p.
func (e *Encoder) Blob(p []byte) {
	e.Compact(uint64(len(p)))
	e.buf = append(e.buf, p...)
}

// Variant writes an enum discriminant.
func (e *Encoder) Variant(idx uint8) {
	e.buf = append(e.buf, idx)
}
