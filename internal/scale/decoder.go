package scale

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"unicode/utf8"
)

var (
	// ErrUnexpectedEOF is returned when the input ends before a value is complete.
	ErrUnexpectedEOF = errors.New("scale: unexpected end of input")
	// ErrInvalidBool is returned for a bool byte other than 0x00 or 0x01.
	ErrInvalidBool = errors.New("scale: invalid bool byte")
	// ErrInvalidVariant is returned when an enum discriminant is out of range.
	ErrInvalidVariant = errors.New("scale: invalid enum variant")
	// ErrUninhabited is returned when decoding an enum that has no variants.
	ErrUninhabited = errors.New("scale: type has no values")
	// ErrInvalidUTF8 is returned when a string payload is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("scale: string is not valid UTF-8")
	// ErrOutOfRange is returned when a value does not fit its declared width.
	ErrOutOfRange = errors.New("scale: value out of range")
	// ErrNonCanonical is returned for compact integers not in their shortest form.
	ErrNonCanonical = errors.New("scale: non-canonical compact integer")
	// ErrTrailingBytes is returned by Finish when input remains unread.
	ErrTrailingBytes = errors.New("scale: trailing bytes after value")
)

// Decoder reads SCALE-encoded values from a byte slice.
type Decoder struct {
	data []byte
	off  int
}

// NewDecoder returns a decoder over p. The decoder does not copy p.
func NewDecoder(p []byte) *Decoder {
	return &Decoder{data: p}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.data) - d.off
}

// Finish reports ErrTrailingBytes if any input is left unread.
func (d *Decoder) Finish() error {
	if n := d.Remaining(); n > 0 {
		return fmt.Errorf("%w: %d bytes", ErrTrailingBytes, n)
	}
	return nil
}

// Raw returns the next n bytes. The result aliases the input.
func (d *Decoder) Raw(n int) ([]byte, error) {
	if n < 0 || d.Remaining() < n {
		return nil, ErrUnexpectedEOF
	}
	p := d.data[d.off : d.off+n]
	d.off += n
	return p, nil
}

// Bool reads a bool byte.
func (d *Decoder) Bool() (bool, error) {
	b, err := d.U8()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: 0x%02x", ErrInvalidBool, b)
	}
}

// U8 reads a single byte.
func (d *Decoder) U8() (uint8, error) {
	p, err := d.Raw(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

// I8 reads a signed byte.
func (d *Decoder) I8() (int8, error) {
	b, err := d.U8()
	return int8(b), err
}

// U32 reads a little-endian uint32.
func (d *Decoder) U32() (uint32, error) {
	p, err := d.Raw(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(p), nil
}

// U64 reads a little-endian uint64.
func (d *Decoder) U64() (uint64, error) {
	p, err := d.Raw(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(p), nil
}

// U128 reads 16 little-endian bytes as an unsigned integer.
func (d *Decoder) U128() (*big.Int, error) {
	p, err := d.Raw(16)
	if err != nil {
		return nil, err
	}
	return le128(p), nil
}

// I128 reads 16 little-endian bytes as a two's complement signed integer.
func (d *Decoder) I128() (*big.Int, error) {
	p, err := d.Raw(16)
	if err != nil {
		return nil, err
	}
	v := le128(p)
	if p[15]&0x80 != 0 {
		v.Sub(v, two128)
	}
	return v, nil
}

func le128(p []byte) *big.Int {
	var be [16]byte
	for i := 0; i < 16; i++ {
		be[15-i] = p[i]
	}
	return new(big.Int).SetBytes(be[:])
}

// Compact reads a compact-encoded integer that fits in 64 bits.
func (d *Decoder) Compact() (uint64, error) {
	b, err := d.U8()
	if err != nil {
		return 0, err
	}
	switch b & 0b11 {
	case 0b00:
		return uint64(b >> 2), nil
	case 0b01:
		rest, err := d.Raw(1)
		if err != nil {
			return 0, err
		}
		v := uint64(binary.LittleEndian.Uint16([]byte{b, rest[0]})) >> 2
		if v < 1<<6 {
			return 0, ErrNonCanonical
		}
		return v, nil
	case 0b10:
		rest, err := d.Raw(3)
		if err != nil {
			return 0, err
		}
		v := uint64(binary.LittleEndian.Uint32([]byte{b, rest[0], rest[1], rest[2]})) >> 2
		if v < 1<<14 {
			return 0, ErrNonCanonical
		}
		return v, nil
	default:
		n := int(b>>2) + 4
		if n > 8 {
			return 0, fmt.Errorf("%w: compact integer of %d bytes", ErrOutOfRange, n)
		}
		p, err := d.Raw(n)
		if err != nil {
			return 0, err
		}
		var v uint64
		for i := 0; i < n; i++ {
			v |= uint64(p[i]) << (8 * i)
		}
		if v < 1<<30 || p[n-1] == 0 {
			return 0, ErrNonCanonical
		}
		return v, nil
	}
}

// Length reads a compact length prefix for a sequence whose elements occupy at
// least elemSize bytes each, and rejects lengths the remaining input cannot hold.
func (d *Decoder) Length(elemSize int) (int, error) {
	n, err := d.Compact()
	if err != nil {
		return 0, err
	}
	if elemSize < 1 {
		elemSize = 1
	}
	if n > uint64(d.Remaining()/elemSize) {
		return 0, fmt.Errorf("%w: length %d exceeds input", ErrUnexpectedEOF, n)
	}
	return int(n), nil
}

// String reads a compact length followed by that many UTF-8 bytes.
func (d *Decoder) String() (string, error) {
	n, err := d.Length(1)
	if err != nil {
		return "", err
	}
	p, err := d.Raw(n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(p) {
		return "", ErrInvalidUTF8
	}
	return string(p), nil
}

// Blob reads a compact length followed by that many bytes. The result is a copy.
func (d *Decoder) Blob() ([]byte, error) {
	n, err := d.Length(1)
	if err != nil {
		return nil, err
	}
	p, err := d.Raw(n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), p...), nil
}

// Variant reads an enum discriminant and checks it against the number of
// variants the enum declares. An enum with zero variants always fails with
// ErrUninhabited once a discriminant byte is present.
func (d *Decoder) Variant(count int) (uint8, error) {
	b, err := d.U8()
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, fmt.Errorf("%w: got discriminant %d", ErrUninhabited, b)
	}
	if int(b) >= count {
		return 0, fmt.Errorf("%w: %d (have %d variants)", ErrInvalidVariant, b, count)
	}
	return b, nil
}
