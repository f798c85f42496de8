package abi

import (
	"fmt"
	"math/big"
	"slices"
	"strings"

	"github.com/roach88/advcases/internal/ir"
)

// User field names in the JSON view.
var userFields = []string{"active", "name", "role", "age", "salary", "favorite_numbers"}

// ToIR renders the variant name.
func (r Role) ToIR() ir.Value {
	return ir.String(r.String())
}

// RoleFromIR parses a variant name.
func RoleFromIR(v ir.Value) (Role, error) {
	s, ok := v.(ir.String)
	if !ok {
		return 0, fmt.Errorf("role: expected string, got %s", ir.TypeName(v))
	}
	return ParseRole(string(s))
}

// ToIR renders the variant name.
func (x Error) ToIR() ir.Value {
	return ir.String(x.String())
}

// ErrorFromIR parses a variant name.
func ErrorFromIR(v ir.Value) (Error, error) {
	s, ok := v.(ir.String)
	if !ok {
		return 0, fmt.Errorf("error: expected string, got %s", ir.TypeName(v))
	}
	return ParseError(string(s))
}

// ToIR renders the user as an object keyed by snake_case field names.
func (u User) ToIR() ir.Value {
	nums := make(ir.Array, len(u.FavoriteNumbers))
	for i, n := range u.FavoriteNumbers {
		nums[i] = ir.Int(n)
	}
	return ir.Object{
		"active":           ir.Bool(u.Active),
		"name":             ir.String(u.Name),
		"role":             u.Role.ToIR(),
		"age":              ir.Int(u.Age),
		"salary":           ir.Uint64(u.Salary),
		"favorite_numbers": nums,
	}
}

// UserFromIR parses the object form. Every field is required and unknown
// fields are rejected.
func UserFromIR(v ir.Value) (User, error) {
	obj, err := expectObject(v, "user", userFields)
	if err != nil {
		return User{}, err
	}

	var u User
	active, ok := obj["active"].(ir.Bool)
	if !ok {
		return User{}, fmt.Errorf("user.active: expected boolean, got %s", ir.TypeName(obj["active"]))
	}
	u.Active = bool(active)

	name, ok := obj["name"].(ir.String)
	if !ok {
		return User{}, fmt.Errorf("user.name: expected string, got %s", ir.TypeName(obj["name"]))
	}
	u.Name = string(name)

	if u.Role, err = RoleFromIR(obj["role"]); err != nil {
		return User{}, fmt.Errorf("user: %w", err)
	}

	age, err := UintFromIR(obj["age"], 8)
	if err != nil {
		return User{}, fmt.Errorf("user.age: %w", err)
	}
	u.Age = uint8(age)

	if u.Salary, err = UintFromIR(obj["salary"], 64); err != nil {
		return User{}, fmt.Errorf("user.salary: %w", err)
	}

	arr, ok := obj["favorite_numbers"].(ir.Array)
	if !ok {
		return User{}, fmt.Errorf("user.favorite_numbers: expected array, got %s", ir.TypeName(obj["favorite_numbers"]))
	}
	u.FavoriteNumbers = make([]uint32, len(arr))
	for i, el := range arr {
		n, err := UintFromIR(el, 32)
		if err != nil {
			return User{}, fmt.Errorf("user.favorite_numbers[%d]: %w", i, err)
		}
		u.FavoriteNumbers[i] = uint32(n)
	}
	return u, nil
}

// ToIR renders {"Ok": user} or {"Err": "NotFound"}.
func (r UserResult) ToIR() ir.Value {
	if u, ok := r.User(); ok {
		return ir.Object{"Ok": u.ToIR()}
	}
	return ir.Object{"Err": r.err.ToIR()}
}

// UserResultFromIR parses the single-key Ok/Err object.
func UserResultFromIR(v ir.Value) (UserResult, error) {
	obj, ok := v.(ir.Object)
	if !ok || len(obj) != 1 {
		return UserResult{}, fmt.Errorf("result: expected object with one of Ok, Err")
	}
	if inner, ok := obj["Ok"]; ok {
		u, err := UserFromIR(inner)
		if err != nil {
			return UserResult{}, err
		}
		return OkUser(u), nil
	}
	if inner, ok := obj["Err"]; ok {
		x, err := ErrorFromIR(inner)
		if err != nil {
			return UserResult{}, err
		}
		return ErrUser(x), nil
	}
	return UserResult{}, fmt.Errorf("result: expected object with one of Ok, Err")
}

// ToIR renders the tuple as a four-element array.
func (n Integers) ToIR() ir.Value {
	return ir.Array{ir.Int(n.A), ir.Integer(n.B), ir.Int(n.C), ir.Integer(n.D)}
}

// IntegersFromIR parses the four-element array form.
func IntegersFromIR(v ir.Value) (Integers, error) {
	arr, err := expectArray(v, "integers", 4)
	if err != nil {
		return Integers{}, err
	}
	a, err := UintFromIR(arr[0], 8)
	if err != nil {
		return Integers{}, fmt.Errorf("integers[0]: %w", err)
	}
	b, ok := ir.BigInt(arr[1])
	if !ok {
		return Integers{}, fmt.Errorf("integers[1]: expected integer, got %s", ir.TypeName(arr[1]))
	}
	c, ok := arr[2].(ir.Int)
	if !ok || c < -128 || c > 127 {
		return Integers{}, fmt.Errorf("integers[2]: expected i8")
	}
	d, ok := ir.BigInt(arr[3])
	if !ok {
		return Integers{}, fmt.Errorf("integers[3]: expected integer, got %s", ir.TypeName(arr[3]))
	}
	return Integers{A: uint8(a), B: b, C: int8(c), D: d}, nil
}

// ToIR renders the tuple as a two-element array.
func (t Tuple) ToIR() ir.Value {
	return ir.Array{ir.Uint64(t.Number), ir.String(t.Text)}
}

// TupleFromIR parses the two-element array form.
func TupleFromIR(v ir.Value) (Tuple, error) {
	arr, err := expectArray(v, "tuple", 2)
	if err != nil {
		return Tuple{}, err
	}
	n, err := UintFromIR(arr[0], 64)
	if err != nil {
		return Tuple{}, fmt.Errorf("tuple[0]: %w", err)
	}
	s, ok := arr[1].(ir.String)
	if !ok {
		return Tuple{}, fmt.Errorf("tuple[1]: expected string, got %s", ir.TypeName(arr[1]))
	}
	return Tuple{Number: n, Text: string(s)}, nil
}

// U64sToIR renders a Vec<u64>.
func U64sToIR(vs []uint64) ir.Value {
	out := make(ir.Array, len(vs))
	for i, v := range vs {
		out[i] = ir.Uint64(v)
	}
	return out
}

// U64sFromIR parses a Vec<u64>.
func U64sFromIR(v ir.Value) ([]uint64, error) {
	arr, ok := v.(ir.Array)
	if !ok {
		return nil, fmt.Errorf("Vec<u64>: expected array, got %s", ir.TypeName(v))
	}
	out := make([]uint64, len(arr))
	for i, el := range arr {
		n, err := UintFromIR(el, 64)
		if err != nil {
			return nil, fmt.Errorf("Vec<u64>[%d]: %w", i, err)
		}
		out[i] = n
	}
	return out, nil
}

// UintFromIR extracts a non-negative integer that fits in bits.
func UintFromIR(v ir.Value, bits uint) (uint64, error) {
	n, ok := ir.BigInt(v)
	if !ok {
		return 0, fmt.Errorf("expected integer, got %s", ir.TypeName(v))
	}
	limit := new(big.Int).Lsh(big.NewInt(1), bits)
	if n.Sign() < 0 || n.Cmp(limit) >= 0 {
		return 0, fmt.Errorf("%s out of range for u%d", n, bits)
	}
	return n.Uint64(), nil
}

func expectObject(v ir.Value, what string, fields []string) (ir.Object, error) {
	obj, ok := v.(ir.Object)
	if !ok {
		return nil, fmt.Errorf("%s: expected object, got %s", what, ir.TypeName(v))
	}
	var missing, unknown []string
	for _, f := range fields {
		if _, ok := obj[f]; !ok {
			missing = append(missing, f)
		}
	}
	for _, k := range obj.SortedKeys() {
		if !slices.Contains(fields, k) {
			unknown = append(unknown, k)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s: missing fields: %s", what, strings.Join(missing, ", "))
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%s: unknown fields: %s", what, strings.Join(unknown, ", "))
	}
	return obj, nil
}

func expectArray(v ir.Value, what string, n int) (ir.Array, error) {
	arr, ok := v.(ir.Array)
	if !ok {
		return nil, fmt.Errorf("%s: expected array, got %s", what, ir.TypeName(v))
	}
	if len(arr) != n {
		return nil, fmt.Errorf("%s: expected %d elements, got %d", what, n, len(arr))
	}
	return arr, nil
}
