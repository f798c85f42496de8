// Package storage lays typed contract state out over a flat key-value engine.
//
// Every stored field has a root key. A single-value field lives at the 4-byte
// little-endian encoding of its root key; a mapping entry lives at the root
// key followed by the SCALE encoding of the entry's key. Values are SCALE
// encoded. Any Backend that can get, insert and remove byte keys can host the
// layout.
package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/roach88/advcases/internal/ir"
	"github.com/roach88/advcases/internal/scale"
)

// ErrCorrupt reports a stored cell whose bytes do not decode as the field's type.
var ErrCorrupt = errors.New("storage: corrupt cell")

// Backend is the key-value engine the layout is stored in.
type Backend interface {
	// Get returns the value stored at key. ok is false when nothing is stored.
	Get(ctx context.Context, key []byte) (value []byte, ok bool, err error)
	// Insert stores value at key, replacing any previous value.
	Insert(ctx context.Context, key, value []byte) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key []byte) error
}

// Lister is a Backend that can enumerate its cells in key order.
type Lister interface {
	Backend
	Cells(ctx context.Context) ([]Cell, error)
}

// Cell is one stored key/value pair.
type Cell struct {
	Key   []byte
	Value []byte
}

// Write is one buffered mutation. Delete writes carry no Value.
type Write struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// RootKey addresses one stored field.
type RootKey uint32

// Key returns the storage key of the field, or of one of its entries when
// suffix is the SCALE-encoded entry key.
func (r RootKey) Key(suffix []byte) []byte {
	k := make([]byte, 4, 4+len(suffix))
	binary.LittleEndian.PutUint32(k, uint32(r))
	return append(k, suffix...)
}

// Root returns the root key prefix of a storage key.
func Root(key []byte) (RootKey, bool) {
	if len(key) < 4 {
		return 0, false
	}
	return RootKey(binary.LittleEndian.Uint32(key)), true
}

// StateDigest hashes a set of cells. Equal cell sets give equal digests.
func StateDigest(cells []Cell) string {
	m := make(map[string]string, len(cells))
	for _, c := range cells {
		m[hex.EncodeToString(c.Key)] = hex.EncodeToString(c.Value)
	}
	return ir.StateDigest(m)
}

// Codec encodes and decodes one type.
type Codec[T any] struct {
	Encode func(*scale.Encoder, T) error
	Decode func(*scale.Decoder) (T, error)
}

func (c Codec[T]) bytes(v T) ([]byte, error) {
	e := scale.NewEncoder()
	if err := c.Encode(e, v); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

func (c Codec[T]) value(key, raw []byte) (T, error) {
	d := scale.NewDecoder(raw)
	v, err := c.Decode(d)
	if err == nil {
		err = d.Finish()
	}
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%w at %x: %w", ErrCorrupt, key, err)
	}
	return v, nil
}

// U32 is the codec for uint32.
var U32 = Codec[uint32]{
	Encode: func(e *scale.Encoder, v uint32) error { e.U32(v); return nil },
	Decode: func(d *scale.Decoder) (uint32, error) { return d.U32() },
}

// U64 is the codec for uint64.
var U64 = Codec[uint64]{
	Encode: func(e *scale.Encoder, v uint64) error { e.U64(v); return nil },
	Decode: func(d *scale.Decoder) (uint64, error) { return d.U64() },
}

// Value is a single stored field.
type Value[T any] struct {
	root  RootKey
	codec Codec[T]
}

// NewValue declares a single-value field at root.
func NewValue[T any](root RootKey, codec Codec[T]) Value[T] {
	return Value[T]{root: root, codec: codec}
}

// Root returns the field's root key.
func (v Value[T]) Root() RootKey { return v.root }

// Get reads the field. ok is false when the cell has never been written.
func (v Value[T]) Get(ctx context.Context, b Backend) (T, bool, error) {
	var zero T
	key := v.root.Key(nil)
	raw, ok, err := b.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	out, err := v.codec.value(key, raw)
	if err != nil {
		return zero, false, err
	}
	return out, true, nil
}

// Decode decodes raw cell bytes of the field.
func (v Value[T]) Decode(raw []byte) (T, error) {
	return v.codec.value(v.root.Key(nil), raw)
}

// Set writes the field.
func (v Value[T]) Set(ctx context.Context, b Backend, val T) error {
	raw, err := v.codec.bytes(val)
	if err != nil {
		return fmt.Errorf("encode root %d: %w", v.root, err)
	}
	return b.Insert(ctx, v.root.Key(nil), raw)
}

// Mapping is a stored map from K to V. It cannot be iterated; only entries
// whose keys are known can be reached.
type Mapping[K, V any] struct {
	root RootKey
	key  Codec[K]
	val  Codec[V]
}

// NewMapping declares a mapping field at root.
func NewMapping[K, V any](root RootKey, key Codec[K], val Codec[V]) Mapping[K, V] {
	return Mapping[K, V]{root: root, key: key, val: val}
}

// Root returns the field's root key.
func (m Mapping[K, V]) Root() RootKey { return m.root }

// Key returns the storage key of the entry for k.
func (m Mapping[K, V]) Key(k K) ([]byte, error) {
	suffix, err := m.key.bytes(k)
	if err != nil {
		return nil, fmt.Errorf("encode key under root %d: %w", m.root, err)
	}
	return m.root.Key(suffix), nil
}

// Get reads the entry for k.
func (m Mapping[K, V]) Get(ctx context.Context, b Backend, k K) (V, bool, error) {
	var zero V
	key, err := m.Key(k)
	if err != nil {
		return zero, false, err
	}
	raw, ok, err := b.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	out, err := m.val.value(key, raw)
	if err != nil {
		return zero, false, err
	}
	return out, true, nil
}

// Insert writes the entry for k, replacing any previous value.
func (m Mapping[K, V]) Insert(ctx context.Context, b Backend, k K, v V) error {
	key, err := m.Key(k)
	if err != nil {
		return err
	}
	raw, err := m.val.bytes(v)
	if err != nil {
		return fmt.Errorf("encode value under root %d: %w", m.root, err)
	}
	return b.Insert(ctx, key, raw)
}

// Remove deletes the entry for k.
func (m Mapping[K, V]) Remove(ctx context.Context, b Backend, k K) error {
	key, err := m.Key(k)
	if err != nil {
		return err
	}
	return b.Remove(ctx, key)
}

// Entries decodes the mapping's cells out of a full cell listing. Cells under
// other roots are skipped.
func (m Mapping[K, V]) Entries(cells []Cell) ([]K, []V, error) {
	prefix := m.root.Key(nil)
	var (
		keys []K
		vals []V
	)
	for _, c := range cells {
		if !bytes.HasPrefix(c.Key, prefix) || len(c.Key) == len(prefix) {
			continue
		}
		k, err := m.key.value(c.Key, c.Key[len(prefix):])
		if err != nil {
			return nil, nil, err
		}
		v, err := m.val.value(c.Key, c.Value)
		if err != nil {
			return nil, nil, err
		}
		keys = append(keys, k)
		vals = append(vals, v)
	}
	return keys, vals, nil
}
