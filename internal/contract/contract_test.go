package contract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/advcases/internal/abi"
	"github.com/roach88/advcases/internal/storage"
)

func alice() abi.User {
	return abi.User{
		Active:          true,
		Name:            "Alice",
		Role:            abi.RoleUser,
		Age:             30,
		Salary:          50000,
		FavoriteNumbers: []uint32{7, 42},
	}
}

func newContract(t *testing.T) (*AdvCases, *storage.MemBackend) {
	t.Helper()
	mem, err := storage.NewMemBackend()
	require.NoError(t, err)
	c := New(mem)
	require.NoError(t, c.Default(context.Background()))
	return c, mem
}

func TestDefault(t *testing.T) {
	ctx := context.Background()
	mem, err := storage.NewMemBackend()
	require.NoError(t, err)
	c := New(mem)

	ok, err := c.Instantiated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Default(ctx))
	ok, err = c.Instantiated(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := c.UsersNum(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), n)

	cells, err := mem.Cells(ctx)
	require.NoError(t, err)
	assert.Equal(t, []storage.Cell{{Key: []byte{1, 0, 0, 0}, Value: []byte{0, 0, 0, 0}}}, cells)
}

func TestAliceScenario(t *testing.T) {
	ctx := context.Background()
	c, _ := newContract(t)

	require.NoError(t, c.Add(ctx, alice()))

	r, err := c.GetUserByResult(ctx, 0)
	require.NoError(t, err)
	u, ok := r.User()
	require.True(t, ok)
	assert.True(t, u.Equal(alice()))

	r, err = c.GetUserByResult(ctx, 1)
	require.NoError(t, err)
	x, isErr := r.Err()
	require.True(t, isErr)
	assert.Equal(t, abi.NotFound, x)

	got, err := c.GetUser(ctx, 1)
	require.NoError(t, err)
	assert.True(t, got.Equal(abi.SentinelUser()))
}

func TestAdd_IDsAreDense(t *testing.T) {
	ctx := context.Background()
	c, _ := newContract(t)

	names := []string{"a", "b", "c"}
	for _, n := range names {
		u := alice()
		u.Name = n
		require.NoError(t, c.Add(ctx, u))
	}
	// Identical records still get distinct ids.
	require.NoError(t, c.Add(ctx, alice()))
	require.NoError(t, c.Add(ctx, alice()))

	n, err := c.UsersNum(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), n)

	for i, name := range names {
		u, err := c.GetUser(ctx, uint32(i))
		require.NoError(t, err)
		assert.Equal(t, name, u.Name)
	}
	for _, id := range []uint32{3, 4} {
		u, err := c.GetUser(ctx, id)
		require.NoError(t, err)
		assert.True(t, u.Equal(alice()))
	}
}

func TestGetUser_SentinelDistinctFromResult(t *testing.T) {
	ctx := context.Background()
	c, _ := newContract(t)

	u, err := c.GetUser(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "none", u.Name)
	assert.Equal(t, abi.RoleAdmin, u.Role)
	assert.False(t, u.Active)
	assert.Empty(t, u.FavoriteNumbers)

	r, err := c.GetUserByResult(ctx, 0)
	require.NoError(t, err)
	assert.False(t, r.IsOk())
}

func TestAdd_ThroughDiscardedOverlayLeavesBaseUntouched(t *testing.T) {
	ctx := context.Background()
	_, mem := newContract(t)

	o := storage.NewOverlay(mem)
	require.NoError(t, New(o).Add(ctx, alice()))
	assert.Equal(t, 2, o.Len(), "user cell and counter cell")
	o.Discard()

	n, err := New(mem).UsersNum(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), n)
}

func TestAdd_IDsExhausted(t *testing.T) {
	ctx := context.Background()
	c, mem := newContract(t)
	require.NoError(t, mem.Insert(ctx, RootUsersNum.Key(nil), []byte{0xff, 0xff, 0xff, 0xff}))

	assert.ErrorIs(t, c.Add(ctx, alice()), ErrIDsExhausted)
}

func TestProbeMessages(t *testing.T) {
	ctx := context.Background()
	c, _ := newContract(t)

	n := c.GetIntegers(ctx)
	assert.Equal(t, uint8(1), n.A)
	assert.Equal(t, "2", n.B.String())
	assert.Equal(t, int8(-3), n.C)
	assert.Equal(t, "4", n.D.String())

	arr := c.GetArray(ctx, "anything")
	assert.NotNil(t, arr)
	assert.Empty(t, arr)

	assert.Equal(t, abi.Tuple{Number: 10, Text: "hello"}, c.GetTuple(ctx, "hello"))
	assert.Equal(t, abi.Tuple{Number: 10, Text: ""}, c.GetTuple(ctx, ""))

	c.HandleReq(ctx)
	assert.Panics(t, func() { c.Sample(ctx, nil) })
}

func TestAccountIndex_Inert(t *testing.T) {
	ctx := context.Background()
	c, mem := newContract(t)
	require.NoError(t, c.Add(ctx, alice()))

	_, ok, err := c.AccountIndex(ctx, abi.DevAccount("alice"))
	require.NoError(t, err)
	assert.False(t, ok)

	cells, err := mem.Cells(ctx)
	require.NoError(t, err)
	for _, cell := range cells {
		root, _ := storage.Root(cell.Key)
		assert.NotEqual(t, RootUsersByAccount, root)
	}
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	c, mem := newContract(t)
	require.NoError(t, c.Add(ctx, alice()))
	require.NoError(t, c.Add(ctx, abi.SentinelUser()))

	cells, err := mem.Cells(ctx)
	require.NoError(t, err)
	s, err := Snapshot(cells)
	require.NoError(t, err)

	assert.True(t, s.Instantiated)
	assert.Equal(t, uint32(2), s.UsersNum)
	require.Len(t, s.Users, 2)
	assert.Equal(t, uint32(0), s.Users[0].ID)
	assert.True(t, s.Users[0].User.Equal(alice()))
	assert.Equal(t, uint32(1), s.Users[1].ID)
	assert.Empty(t, s.Accounts)
}

func TestSnapshot_RejectsForeignRoot(t *testing.T) {
	_, err := Snapshot([]storage.Cell{{Key: []byte{9, 0, 0, 0}, Value: []byte{0}}})
	assert.ErrorIs(t, err, storage.ErrCorrupt)
}

func TestLayout(t *testing.T) {
	fields := Layout()
	require.Len(t, fields, 3)
	assert.Equal(t, "users", fields[0].Name)
	assert.Equal(t, RootUsersNum, fields[1].Root)
	assert.Equal(t, "users_by_account", fields[2].Name)
}
