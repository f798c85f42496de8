// Package contract implements the user record store: a dense, append-only
// table of User records addressed by id, plus a handful of probe messages
// that exercise the encoding of integers, tuples, sequences and the
// uninhabited Error2.
//
// AdvCases holds no state of its own. Every operation reads and writes
// through the storage.Backend it is bound to, so the caller decides what a
// transaction is: the engine binds it to an overlay per call and commits or
// discards the overlay afterwards.
package contract

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"

	"github.com/roach88/advcases/internal/abi"
	"github.com/roach88/advcases/internal/scale"
	"github.com/roach88/advcases/internal/storage"
)

// Root keys of the persisted fields.
const (
	RootUsers          storage.RootKey = 0
	RootUsersNum       storage.RootKey = 1
	RootUsersByAccount storage.RootKey = 2
)

var (
	userCodec = storage.Codec[abi.User]{
		Encode: func(e *scale.Encoder, u abi.User) error { return u.EncodeTo(e) },
		Decode: abi.DecodeUser,
	}
	accountCodec = storage.Codec[abi.AccountID]{
		Encode: func(e *scale.Encoder, a abi.AccountID) error { return a.EncodeTo(e) },
		Decode: abi.DecodeAccountID,
	}

	users          = storage.NewMapping(RootUsers, storage.U32, userCodec)
	usersNum       = storage.NewValue(RootUsersNum, storage.U32)
	usersByAccount = storage.NewMapping(RootUsersByAccount, accountCodec, storage.U64)
)

// ErrIDsExhausted is returned by Add once every u32 id has been handed out.
// The call traps and nothing is written.
var ErrIDsExhausted = errors.New("contract: user ids exhausted")

// AdvCases is the record store bound to a storage backend.
type AdvCases struct {
	backend storage.Backend
}

// New binds the store to backend.
func New(backend storage.Backend) *AdvCases {
	return &AdvCases{backend: backend}
}

// Default is the constructor: users_num starts at 0 and both mappings are
// empty. Only the counter cell is written.
func (c *AdvCases) Default(ctx context.Context) error {
	return usersNum.Set(ctx, c.backend, 0)
}

// Instantiated reports whether the constructor has run against the backend.
func (c *AdvCases) Instantiated(ctx context.Context) (bool, error) {
	_, ok, err := usersNum.Get(ctx, c.backend)
	return ok, err
}

// UsersNum returns the number of add calls ever made.
func (c *AdvCases) UsersNum(ctx context.Context) (uint32, error) {
	n, _, err := usersNum.Get(ctx, c.backend)
	return n, err
}

// Add stores user under the next id and bumps the counter.
func (c *AdvCases) Add(ctx context.Context, user abi.User) error {
	id, err := c.UsersNum(ctx)
	if err != nil {
		return err
	}
	if id == math.MaxUint32 {
		return ErrIDsExhausted
	}
	if err := users.Insert(ctx, c.backend, id, user); err != nil {
		return fmt.Errorf("store user %d: %w", id, err)
	}
	return usersNum.Set(ctx, c.backend, id+1)
}

// GetUser returns the user stored at idx, or the sentinel user when there is none.
func (c *AdvCases) GetUser(ctx context.Context, idx uint32) (abi.User, error) {
	u, ok, err := users.Get(ctx, c.backend, idx)
	if err != nil {
		return abi.User{}, err
	}
	if !ok {
		return abi.SentinelUser(), nil
	}
	return u, nil
}

// GetUserByResult returns the user stored at idx, or Err(NotFound).
func (c *AdvCases) GetUserByResult(ctx context.Context, idx uint32) (abi.UserResult, error) {
	u, ok, err := users.Get(ctx, c.backend, idx)
	if err != nil {
		return abi.UserResult{}, err
	}
	if !ok {
		return abi.ErrUser(abi.NotFound), nil
	}
	return abi.OkUser(u), nil
}

// GetIntegers returns the fixed tuple (1, 2, -3, 4).
func (c *AdvCases) GetIntegers(context.Context) abi.Integers {
	return abi.Integers{A: 1, B: big.NewInt(2), C: -3, D: big.NewInt(4)}
}

// GetArray ignores text and returns an empty sequence.
func (c *AdvCases) GetArray(_ context.Context, _ string) []uint64 {
	return []uint64{}
}

// GetTuple returns (10, text).
func (c *AdvCases) GetTuple(_ context.Context, text string) abi.Tuple {
	return abi.Tuple{Number: 10, Text: text}
}

// Sample takes an Error2, which cannot exist, so the body never runs.
func (c *AdvCases) Sample(_ context.Context, value abi.Error2) uint8 {
	abi.Absurd(value)
	return 1
}

// HandleReq does nothing.
func (c *AdvCases) HandleReq(context.Context) {}

// AccountIndex reads users_by_account. No message writes it; it exists so the
// persisted layout keeps the field addressable.
func (c *AdvCases) AccountIndex(ctx context.Context, account abi.AccountID) (uint64, bool, error) {
	return usersByAccount.Get(ctx, c.backend, account)
}
