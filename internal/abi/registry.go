package abi

import (
	"fmt"
	"slices"

	"github.com/roach88/advcases/internal/ir"
	"github.com/roach88/advcases/internal/scale"
)

// Codec converts one named type between its JSON view and SCALE bytes.
type Codec struct {
	Name   string
	Encode func(e *scale.Encoder, v ir.Value) error
	Decode func(d *scale.Decoder) (ir.Value, error)
}

// Type names used in metadata and the dispatch table.
const (
	TypeUnit       = "()"
	TypeU8         = "u8"
	TypeU32        = "u32"
	TypeU64        = "u64"
	TypeString     = "String"
	TypeRole       = "Role"
	TypeUser       = "User"
	TypeError      = "Error"
	TypeError2     = "Error2"
	TypeUserResult = "Result<User,Error>"
	TypeU64s       = "Vec<u64>"
	TypeTuple      = "(u64,String)"
	TypeIntegers   = "(u8,u128,i8,i128)"
	TypeAccountID  = "AccountId"
)

var codecs = map[string]Codec{}

func register(c Codec) {
	if _, dup := codecs[c.Name]; dup {
		panic("abi: duplicate codec " + c.Name)
	}
	codecs[c.Name] = c
}

// Lookup returns the codec for a type name.
func Lookup(name string) (Codec, bool) {
	c, ok := codecs[name]
	return c, ok
}

// TypeNames lists every registered type name, sorted.
func TypeNames() []string {
	names := make([]string, 0, len(codecs))
	for n := range codecs {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// encodable is satisfied by every abi value type.
type encodable interface {
	EncodeTo(*scale.Encoder) error
}

// viewable is satisfied by every abi value type.
type viewable interface {
	ToIR() ir.Value
}

// typed builds a Codec from a JSON parser and a SCALE decoder for T.
func typed[T interface {
	encodable
	viewable
}](name string, fromIR func(ir.Value) (T, error), decode func(*scale.Decoder) (T, error)) Codec {
	return Codec{
		Name: name,
		Encode: func(e *scale.Encoder, v ir.Value) error {
			x, err := fromIR(v)
			if err != nil {
				return err
			}
			return x.EncodeTo(e)
		},
		Decode: func(d *scale.Decoder) (ir.Value, error) {
			x, err := decode(d)
			if err != nil {
				return nil, err
			}
			return x.ToIR(), nil
		},
	}
}

func init() {
	register(Codec{
		Name:   TypeUnit,
		Encode: func(*scale.Encoder, ir.Value) error { return nil },
		Decode: func(*scale.Decoder) (ir.Value, error) { return ir.Array{}, nil },
	})
	register(Codec{
		Name: TypeU8,
		Encode: func(e *scale.Encoder, v ir.Value) error {
			n, err := UintFromIR(v, 8)
			if err != nil {
				return err
			}
			e.U8(uint8(n))
			return nil
		},
		Decode: func(d *scale.Decoder) (ir.Value, error) {
			n, err := d.U8()
			if err != nil {
				return nil, err
			}
			return ir.Int(n), nil
		},
	})
	register(Codec{
		Name: TypeU32,
		Encode: func(e *scale.Encoder, v ir.Value) error {
			n, err := UintFromIR(v, 32)
			if err != nil {
				return err
			}
			e.U32(uint32(n))
			return nil
		},
		Decode: func(d *scale.Decoder) (ir.Value, error) {
			n, err := d.U32()
			if err != nil {
				return nil, err
			}
			return ir.Int(n), nil
		},
	})
	register(Codec{
		Name: TypeU64,
		Encode: func(e *scale.Encoder, v ir.Value) error {
			n, err := UintFromIR(v, 64)
			if err != nil {
				return err
			}
			e.U64(n)
			return nil
		},
		Decode: func(d *scale.Decoder) (ir.Value, error) {
			n, err := d.U64()
			if err != nil {
				return nil, err
			}
			return ir.Uint64(n), nil
		},
	})
	register(Codec{
		Name: TypeString,
		Encode: func(e *scale.Encoder, v ir.Value) error {
			s, ok := v.(ir.String)
			if !ok {
				return fmt.Errorf("expected string, got %s", ir.TypeName(v))
			}
			e.String(string(s))
			return nil
		},
		Decode: func(d *scale.Decoder) (ir.Value, error) {
			s, err := d.String()
			if err != nil {
				return nil, err
			}
			return ir.String(s), nil
		},
	})
	register(Codec{
		Name: TypeU64s,
		Encode: func(e *scale.Encoder, v ir.Value) error {
			vs, err := U64sFromIR(v)
			if err != nil {
				return err
			}
			EncodeU64s(e, vs)
			return nil
		},
		Decode: func(d *scale.Decoder) (ir.Value, error) {
			vs, err := DecodeU64s(d)
			if err != nil {
				return nil, err
			}
			return U64sToIR(vs), nil
		},
	})
	register(Codec{
		Name: TypeError2,
		Encode: func(*scale.Encoder, ir.Value) error {
			return fmt.Errorf("Error2 has no values: %w", scale.ErrUninhabited)
		},
		Decode: func(d *scale.Decoder) (ir.Value, error) {
			_, err := DecodeError2(d)
			return nil, err
		},
	})
	register(typed(TypeRole, RoleFromIR, DecodeRole))
	register(typed(TypeUser, UserFromIR, DecodeUser))
	register(typed(TypeError, ErrorFromIR, DecodeError))
	register(typed(TypeUserResult, UserResultFromIR, DecodeUserResult))
	register(typed(TypeTuple, TupleFromIR, DecodeTuple))
	register(typed(TypeIntegers, IntegersFromIR, DecodeIntegers))
	register(typed(TypeAccountID, accountFromIR, DecodeAccountID))
}

// ToIR renders the id as 0x-prefixed hex.
func (a AccountID) ToIR() ir.Value {
	return ir.String(a.String())
}

func accountFromIR(v ir.Value) (AccountID, error) {
	s, ok := v.(ir.String)
	if !ok {
		return AccountID{}, fmt.Errorf("account id: expected string, got %s", ir.TypeName(v))
	}
	return ParseAccountID(string(s))
}
