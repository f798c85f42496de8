package storage

import (
	"bytes"
	"context"
)

// Overlay buffers writes on top of a Backend. Reads see buffered writes
// first. Nothing reaches the base until the caller takes Writes and applies
// them, so a call that fails halfway leaves the base untouched.
type Overlay struct {
	base  Backend
	index map[string]int
	order []Write
}

// NewOverlay returns an empty overlay over base.
func NewOverlay(base Backend) *Overlay {
	return &Overlay{base: base, index: make(map[string]int)}
}

// Get implements Backend.
func (o *Overlay) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	if i, ok := o.index[string(key)]; ok {
		w := o.order[i]
		if w.Delete {
			return nil, false, nil
		}
		return bytes.Clone(w.Value), true, nil
	}
	return o.base.Get(ctx, key)
}

// Insert implements Backend.
func (o *Overlay) Insert(_ context.Context, key, value []byte) error {
	o.put(Write{Key: bytes.Clone(key), Value: bytes.Clone(value)})
	return nil
}

// Remove implements Backend.
func (o *Overlay) Remove(_ context.Context, key []byte) error {
	o.put(Write{Key: bytes.Clone(key), Delete: true})
	return nil
}

func (o *Overlay) put(w Write) {
	if i, ok := o.index[string(w.Key)]; ok {
		o.order[i] = w
		return
	}
	o.index[string(w.Key)] = len(o.order)
	o.order = append(o.order, w)
}

// Writes returns the buffered writes, one per key, in the order each key was
// first written. The last write to a key wins.
func (o *Overlay) Writes() []Write {
	out := make([]Write, len(o.order))
	copy(out, o.order)
	return out
}

// Len returns the number of distinct keys written.
func (o *Overlay) Len() int {
	return len(o.order)
}

// Discard drops all buffered writes.
func (o *Overlay) Discard() {
	clear(o.index)
	o.order = o.order[:0]
}
