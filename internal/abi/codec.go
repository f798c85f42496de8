package abi

import (
	"fmt"

	"github.com/roach88/advcases/internal/scale"
)

// EncodeTo writes the variant index.
func (r Role) EncodeTo(e *scale.Encoder) error {
	if r >= roleCount {
		return fmt.Errorf("encode role: %w", scale.ErrInvalidVariant)
	}
	e.Variant(uint8(r))
	return nil
}

// DecodeRole reads a Role variant.
func DecodeRole(d *scale.Decoder) (Role, error) {
	idx, err := d.Variant(roleCount)
	if err != nil {
		return 0, fmt.Errorf("decode role: %w", err)
	}
	return Role(idx), nil
}

// EncodeTo writes the variant index.
func (x Error) EncodeTo(e *scale.Encoder) error {
	if x >= errorCount {
		return fmt.Errorf("encode error: %w", scale.ErrInvalidVariant)
	}
	e.Variant(uint8(x))
	return nil
}

// DecodeError reads an Error variant.
func DecodeError(d *scale.Decoder) (Error, error) {
	idx, err := d.Variant(errorCount)
	if err != nil {
		return 0, fmt.Errorf("decode error: %w", err)
	}
	return Error(idx), nil
}

// DecodeError2 always fails: Error2 has no variants, so no byte string
// decodes to one.
func DecodeError2(d *scale.Decoder) (Error2, error) {
	if _, err := d.Variant(0); err != nil {
		return nil, fmt.Errorf("decode Error2: %w", err)
	}
	return nil, fmt.Errorf("decode Error2: %w", scale.ErrUninhabited)
}

// EncodeTo writes the fields in declaration order.
func (u User) EncodeTo(e *scale.Encoder) error {
	e.Bool(u.Active)
	e.String(u.Name)
	if err := u.Role.EncodeTo(e); err != nil {
		return err
	}
	e.U8(u.Age)
	e.U64(u.Salary)
	e.Compact(uint64(len(u.FavoriteNumbers)))
	for _, n := range u.FavoriteNumbers {
		e.U32(n)
	}
	return nil
}

// DecodeUser reads a User. FavoriteNumbers is never nil on success.
func DecodeUser(d *scale.Decoder) (User, error) {
	var (
		u   User
		err error
	)
	if u.Active, err = d.Bool(); err != nil {
		return User{}, fmt.Errorf("decode user.active: %w", err)
	}
	if u.Name, err = d.String(); err != nil {
		return User{}, fmt.Errorf("decode user.name: %w", err)
	}
	if u.Role, err = DecodeRole(d); err != nil {
		return User{}, fmt.Errorf("decode user.role: %w", err)
	}
	if u.Age, err = d.U8(); err != nil {
		return User{}, fmt.Errorf("decode user.age: %w", err)
	}
	if u.Salary, err = d.U64(); err != nil {
		return User{}, fmt.Errorf("decode user.salary: %w", err)
	}
	n, err := d.Length(4)
	if err != nil {
		return User{}, fmt.Errorf("decode user.favorite_numbers: %w", err)
	}
	u.FavoriteNumbers = make([]uint32, n)
	for i := range u.FavoriteNumbers {
		if u.FavoriteNumbers[i], err = d.U32(); err != nil {
			return User{}, fmt.Errorf("decode user.favorite_numbers[%d]: %w", i, err)
		}
	}
	return u, nil
}

// EncodeTo writes 0x00 + User or 0x01 + Error.
func (r UserResult) EncodeTo(e *scale.Encoder) error {
	if r.user != nil {
		e.Variant(0)
		return r.user.EncodeTo(e)
	}
	e.Variant(1)
	return r.err.EncodeTo(e)
}

// DecodeUserResult reads a Result<User, Error>.
func DecodeUserResult(d *scale.Decoder) (UserResult, error) {
	tag, err := d.Variant(2)
	if err != nil {
		return UserResult{}, fmt.Errorf("decode result: %w", err)
	}
	if tag == 0 {
		u, err := DecodeUser(d)
		if err != nil {
			return UserResult{}, err
		}
		return OkUser(u), nil
	}
	x, err := DecodeError(d)
	if err != nil {
		return UserResult{}, err
	}
	return ErrUser(x), nil
}

// EncodeTo writes the four integers back to back.
func (n Integers) EncodeTo(e *scale.Encoder) error {
	e.U8(n.A)
	if err := e.U128(n.B); err != nil {
		return fmt.Errorf("encode integers.1: %w", err)
	}
	e.I8(n.C)
	if err := e.I128(n.D); err != nil {
		return fmt.Errorf("encode integers.3: %w", err)
	}
	return nil
}

// DecodeIntegers reads a (u8, u128, i8, i128) tuple.
func DecodeIntegers(d *scale.Decoder) (Integers, error) {
	var (
		n   Integers
		err error
	)
	if n.A, err = d.U8(); err != nil {
		return Integers{}, fmt.Errorf("decode integers.0: %w", err)
	}
	if n.B, err = d.U128(); err != nil {
		return Integers{}, fmt.Errorf("decode integers.1: %w", err)
	}
	if n.C, err = d.I8(); err != nil {
		return Integers{}, fmt.Errorf("decode integers.2: %w", err)
	}
	if n.D, err = d.I128(); err != nil {
		return Integers{}, fmt.Errorf("decode integers.3: %w", err)
	}
	return n, nil
}

// EncodeTo writes the u64 then the string.
func (t Tuple) EncodeTo(e *scale.Encoder) error {
	e.U64(t.Number)
	e.String(t.Text)
	return nil
}

// DecodeTuple reads a (u64, String) tuple.
func DecodeTuple(d *scale.Decoder) (Tuple, error) {
	var (
		t   Tuple
		err error
	)
	if t.Number, err = d.U64(); err != nil {
		return Tuple{}, fmt.Errorf("decode tuple.0: %w", err)
	}
	if t.Text, err = d.String(); err != nil {
		return Tuple{}, fmt.Errorf("decode tuple.1: %w", err)
	}
	return t, nil
}

// EncodeU64s writes a Vec<u64>.
func EncodeU64s(e *scale.Encoder, vs []uint64) {
	e.Compact(uint64(len(vs)))
	for _, v := range vs {
		e.U64(v)
	}
}

// DecodeU64s reads a Vec<u64>. The result is never nil on success.
func DecodeU64s(d *scale.Decoder) ([]uint64, error) {
	n, err := d.Length(8)
	if err != nil {
		return nil, fmt.Errorf("decode Vec<u64>: %w", err)
	}
	out := make([]uint64, n)
	for i := range out {
		if out[i], err = d.U64(); err != nil {
			return nil, fmt.Errorf("decode Vec<u64>[%d]: %w", i, err)
		}
	}
	return out, nil
}

// Encode is a convenience for values that encode on their own.
func Encode(v interface{ EncodeTo(*scale.Encoder) error }) ([]byte, error) {
	e := scale.NewEncoder()
	if err := v.EncodeTo(e); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}
