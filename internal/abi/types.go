// Package abi defines the typed values of the record store's call boundary:
// the stored User record, its Role, the Error kinds, the uninhabited Error2,
// and the tuple shapes returned by the probe messages.
//
// Every type has a SCALE encoding (EncodeTo / DecodeX) and a JSON view
// (ToIR / XFromIR). Codecs for the whole set are also reachable by type
// name through Lookup, which is what dispatch and metadata use.
package abi

import (
	"fmt"
	"math/big"
	"slices"
)

// Role is the closed set of user roles.
type Role uint8

const (
	RoleUser Role = iota
	RoleAdmin
)

// roleCount is the number of Role variants on the wire.
const roleCount = 2

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "User"
	case RoleAdmin:
		return "Admin"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

// ParseRole parses a variant name.
func ParseRole(s string) (Role, error) {
	switch s {
	case "User":
		return RoleUser, nil
	case "Admin":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

// User is the record stored per id. It has no identity of its own; ids are
// assigned by the store.
type User struct {
	Active          bool
	Name            string
	Role            Role
	Age             uint8
	Salary          uint64
	FavoriteNumbers []uint32
}

// Equal reports field-wise equality. A nil and an empty FavoriteNumbers are equal.
func (u User) Equal(o User) bool {
	return u.Active == o.Active &&
		u.Name == o.Name &&
		u.Role == o.Role &&
		u.Age == o.Age &&
		u.Salary == o.Salary &&
		slices.Equal(u.FavoriteNumbers, o.FavoriteNumbers)
}

// SentinelUser is what get_user returns for an id with no stored record.
func SentinelUser() User {
	return User{
		Active:          false,
		Name:            "none",
		Role:            RoleAdmin,
		Age:             0,
		Salary:          0,
		FavoriteNumbers: []uint32{},
	}
}

// Error is the failure kind of fallible lookups.
type Error uint8

const (
	NotFound Error = iota
	// Unknown is reserved. No operation produces it, but it stays in the
	// encoding so variant indexes never shift.
	Unknown
)

const errorCount = 2

func (e Error) String() string {
	switch e {
	case NotFound:
		return "NotFound"
	case Unknown:
		return "Unknown"
	default:
		return fmt.Sprintf("Error(%d)", uint8(e))
	}
}

// ParseError parses a variant name.
func ParseError(s string) (Error, error) {
	switch s {
	case "NotFound":
		return NotFound, nil
	case "Unknown":
		return Unknown, nil
	default:
		return 0, fmt.Errorf("unknown error variant %q", s)
	}
}

// Error2 is an enum with no variants. No value of it can exist: the interface
// is sealed and nothing implements it, and decoding one always fails.
type Error2 interface {
	error2()
}

// Absurd marks code that would only run while holding an Error2. Reaching it
// is a bug.
func Absurd(v Error2) {
	panic(fmt.Sprintf("abi: unreachable: holding a value of uninhabited type Error2 (%v)", v))
}

// UserResult is Result<User, Error>: exactly one of a User or an Error.
type UserResult struct {
	user *User
	err  Error
}

// OkUser wraps a successful lookup.
func OkUser(u User) UserResult {
	return UserResult{user: &u}
}

// ErrUser wraps a failed lookup.
func ErrUser(e Error) UserResult {
	return UserResult{err: e}
}

// IsOk reports whether r holds a User.
func (r UserResult) IsOk() bool {
	return r.user != nil
}

// User returns the record if r is Ok.
func (r UserResult) User() (User, bool) {
	if r.user == nil {
		return User{}, false
	}
	return *r.user, true
}

// Err returns the failure kind if r is Err.
func (r UserResult) Err() (Error, bool) {
	if r.user != nil {
		return 0, false
	}
	return r.err, true
}

// Integers is the (u8, u128, i8, i128) tuple returned by get_integers.
type Integers struct {
	A uint8
	B *big.Int // u128
	C int8
	D *big.Int // i128
}

// Tuple is the (u64, String) tuple returned by get_tuple.
type Tuple struct {
	Number uint64
	Text   string
}
