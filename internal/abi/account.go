package abi

import (
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/roach88/advcases/internal/scale"
)

// Selector identifies a message or constructor in call data.
type Selector [4]byte

// SelectorOf derives a selector from a label: the first four bytes of
// BLAKE2b-256(label).
func SelectorOf(label string) Selector {
	sum := blake2b.Sum256([]byte(label))
	var s Selector
	copy(s[:], sum[:4])
	return s
}

// String renders the selector as 0x-prefixed hex.
func (s Selector) String() string {
	return "0x" + hex.EncodeToString(s[:])
}

// Bytes returns the selector as a fresh slice.
func (s Selector) Bytes() []byte {
	return s[:]
}

// ParseSelector accepts 8 hex digits with an optional 0x prefix.
func ParseSelector(str string) (Selector, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(str, "0x"))
	if err != nil || len(raw) != 4 {
		return Selector{}, fmt.Errorf("invalid selector %q: want 4 hex-encoded bytes", str)
	}
	var s Selector
	copy(s[:], raw)
	return s, nil
}

// AccountID identifies a caller.
type AccountID [32]byte

// DevAccounts are the well-known development callers, in the usual order.
var DevAccounts = []string{"alice", "bob", "charlie", "dave", "eve", "ferdie"}

// DevAccount derives the id of a named development account.
func DevAccount(name string) AccountID {
	return AccountID(blake2b.Sum256([]byte("dev/" + strings.ToLower(name))))
}

// ParseAccountID accepts a development account name or 0x followed by 64 hex
// digits.
func ParseAccountID(s string) (AccountID, error) {
	for _, name := range DevAccounts {
		if strings.EqualFold(s, name) {
			return DevAccount(name), nil
		}
	}
	if !strings.HasPrefix(s, "0x") {
		return AccountID{}, fmt.Errorf("unknown account %q: use a dev name (%s) or 0x-prefixed hex",
			s, strings.Join(DevAccounts, ", "))
	}
	raw, err := hex.DecodeString(s[2:])
	if err != nil || len(raw) != 32 {
		return AccountID{}, fmt.Errorf("invalid account id %q: want 32 hex-encoded bytes", s)
	}
	var id AccountID
	copy(id[:], raw)
	return id, nil
}

// String renders the id as 0x-prefixed hex.
func (a AccountID) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// EncodeTo writes the 32 raw bytes.
func (a AccountID) EncodeTo(e *scale.Encoder) error {
	e.Raw(a[:])
	return nil
}

// DecodeAccountID reads 32 raw bytes.
func DecodeAccountID(d *scale.Decoder) (AccountID, error) {
	raw, err := d.Raw(32)
	if err != nil {
		return AccountID{}, fmt.Errorf("decode account id: %w", err)
	}
	var a AccountID
	copy(a[:], raw)
	return a, nil
}
