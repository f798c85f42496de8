package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/advcases/internal/scale"
)

func newMem(t *testing.T) *MemBackend {
	t.Helper()
	m, err := NewMemBackend()
	require.NoError(t, err)
	return m
}

func TestRootKey_Layout(t *testing.T) {
	assert.Equal(t, []byte{0x01, 0x00, 0x00, 0x00}, RootKey(1).Key(nil))
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x00, 0x05, 0x00, 0x00, 0x00}, RootKey(0).Key([]byte{5, 0, 0, 0}))

	r, ok := Root([]byte{0x02, 0x00, 0x00, 0x00, 0xff})
	require.True(t, ok)
	assert.Equal(t, RootKey(2), r)

	_, ok = Root([]byte{0x01})
	assert.False(t, ok)
}

func TestMemBackend_GetInsertRemove(t *testing.T) {
	ctx := context.Background()
	m := newMem(t)

	_, ok, err := m.Get(ctx, []byte{1})
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Insert(ctx, []byte{1}, []byte{0xaa}))
	v, ok, err := m.Get(ctx, []byte{1})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{0xaa}, v)

	// Returned values are copies.
	v[0] = 0
	again, _, _ := m.Get(ctx, []byte{1})
	assert.Equal(t, []byte{0xaa}, again)

	require.NoError(t, m.Remove(ctx, []byte{1}))
	_, ok, err = m.Get(ctx, []byte{1})
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Remove(ctx, []byte{9}), "removing an absent key")
}

func TestMemBackend_CellsInKeyOrder(t *testing.T) {
	ctx := context.Background()
	m := newMem(t)
	require.NoError(t, m.Apply(ctx, []Write{
		{Key: []byte{0x02}, Value: []byte{2}},
		{Key: []byte{0x00, 0x10}, Value: []byte{1}},
		{Key: []byte{0x00, 0x02}, Value: []byte{0}},
	}))

	cells, err := m.Cells(ctx)
	require.NoError(t, err)
	require.Len(t, cells, 3)
	assert.Equal(t, []byte{0x00, 0x02}, cells[0].Key)
	assert.Equal(t, []byte{0x00, 0x10}, cells[1].Key)
	assert.Equal(t, []byte{0x02}, cells[2].Key)
}

func TestMemBackend_ApplyCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := newMem(t)
	assert.ErrorIs(t, m.Apply(ctx, []Write{{Key: []byte{1}, Value: []byte{1}}}), context.Canceled)
}

func TestOverlay_BuffersUntilApplied(t *testing.T) {
	ctx := context.Background()
	base := newMem(t)
	require.NoError(t, base.Insert(ctx, []byte{1}, []byte{0x01}))
	require.NoError(t, base.Insert(ctx, []byte{2}, []byte{0x02}))

	o := NewOverlay(base)
	require.NoError(t, o.Insert(ctx, []byte{3}, []byte{0x03}))
	require.NoError(t, o.Remove(ctx, []byte{1}))
	require.NoError(t, o.Insert(ctx, []byte{3}, []byte{0x33}))

	v, ok, err := o.Get(ctx, []byte{3})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{0x33}, v)

	_, ok, err = o.Get(ctx, []byte{1})
	require.NoError(t, err)
	assert.False(t, ok, "removed in overlay")

	v, ok, err = o.Get(ctx, []byte{2})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{0x02}, v, "falls through to base")

	// Base is untouched until the writes are applied.
	_, ok, _ = base.Get(ctx, []byte{3})
	assert.False(t, ok)

	writes := o.Writes()
	assert.Equal(t, []Write{
		{Key: []byte{3}, Value: []byte{0x33}},
		{Key: []byte{1}, Delete: true},
	}, writes)
	assert.Equal(t, 2, o.Len())

	require.NoError(t, base.Apply(ctx, writes))
	cells, err := base.Cells(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Cell{
		{Key: []byte{2}, Value: []byte{0x02}},
		{Key: []byte{3}, Value: []byte{0x33}},
	}, cells)

	o.Discard()
	assert.Empty(t, o.Writes())
}

func TestValue_GetSet(t *testing.T) {
	ctx := context.Background()
	m := newMem(t)
	counter := NewValue(RootKey(1), U32)

	_, ok, err := counter.Get(ctx, m)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, counter.Set(ctx, m, 7))
	n, ok, err := counter.Get(ctx, m)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint32(7), n)

	raw, _, _ := m.Get(ctx, []byte{1, 0, 0, 0})
	assert.Equal(t, []byte{7, 0, 0, 0}, raw)
}

func TestValue_Corrupt(t *testing.T) {
	ctx := context.Background()
	m := newMem(t)
	require.NoError(t, m.Insert(ctx, RootKey(1).Key(nil), []byte{1, 2, 3, 4, 5}))

	_, _, err := NewValue(RootKey(1), U32).Get(ctx, m)
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.ErrorIs(t, err, scale.ErrTrailingBytes)
}

func TestMapping_InsertGetRemove(t *testing.T) {
	ctx := context.Background()
	m := newMem(t)
	users := NewMapping(RootKey(0), U32, U64)

	key, err := users.Key(5)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 5, 0, 0, 0}, key)

	require.NoError(t, users.Insert(ctx, m, 5, 500))
	require.NoError(t, users.Insert(ctx, m, 1, 100))
	require.NoError(t, users.Insert(ctx, m, 5, 555))

	v, ok, err := users.Get(ctx, m, 5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(555), v)

	_, ok, err = users.Get(ctx, m, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, NewValue(RootKey(1), U32).Set(ctx, m, 2))
	cells, err := m.Cells(ctx)
	require.NoError(t, err)
	keys, vals, err := users.Entries(cells)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 5}, keys)
	assert.Equal(t, []uint64{100, 555}, vals)

	require.NoError(t, users.Remove(ctx, m, 5))
	_, ok, _ = users.Get(ctx, m, 5)
	assert.False(t, ok)
}

func TestStateDigest_OrderIndependent(t *testing.T) {
	a := []Cell{{Key: []byte{1}, Value: []byte{1}}, {Key: []byte{2}, Value: []byte{2}}}
	b := []Cell{a[1], a[0]}
	assert.Equal(t, StateDigest(a), StateDigest(b))
	assert.NotEqual(t, StateDigest(a), StateDigest(a[:1]))
}
