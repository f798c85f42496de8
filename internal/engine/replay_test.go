package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/advcases/internal/dispatch"
	"github.com/roach88/advcases/internal/storage"
)

func TestReplay_EmptyJournal(t *testing.T) {
	_, s := startEngine(t)

	res, err := Replay(context.Background(), s, dispatch.NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Calls)
	assert.Empty(t, res.Mismatches)
	assert.True(t, res.OK())
	assert.Equal(t, storage.StateDigest(nil), res.StateDigest)
}

func TestReplay_ReproducesState(t *testing.T) {
	e, s := startEngine(t)
	ctx := context.Background()

	_, err := e.Instantiate(ctx, alice, "default")
	require.NoError(t, err)
	addAlice(t, e)
	addAlice(t, e)
	_, err = e.Transact(ctx, alice, "get_user", u32(1))
	require.NoError(t, err)
	_, err = e.Query(ctx, alice, "get_user", u32(0))
	require.NoError(t, err)

	res, err := Replay(ctx, s, dispatch.NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, 4, res.Calls, "queries are not journaled")
	assert.Empty(t, res.Mismatches)
	assert.Equal(t, res.StoredDigest, res.StateDigest)
	assert.True(t, res.OK())
}

func TestReplay_DetectsTamperedOutput(t *testing.T) {
	e, s := startEngine(t)
	ctx := context.Background()

	_, err := e.Instantiate(ctx, alice, "default")
	require.NoError(t, err)
	addAlice(t, e)
	r, err := e.Transact(ctx, alice, "get_user", u32(0))
	require.NoError(t, err)

	_, err = s.DB().ExecContext(ctx, `UPDATE calls SET output = X'00' WHERE id = ?`, r.Call.ID)
	require.NoError(t, err)

	res, err := Replay(ctx, s, dispatch.NewRegistry())
	require.NoError(t, err)
	require.Len(t, res.Mismatches, 1)
	assert.Equal(t, r.Call.ID, res.Mismatches[0].CallID)
	assert.Contains(t, res.Mismatches[0].Reason, "journal records 00")
	assert.False(t, res.OK())
}

func TestReplay_DetectsStorageDrift(t *testing.T) {
	e, s := startEngine(t)
	ctx := context.Background()

	_, err := e.Instantiate(ctx, alice, "default")
	require.NoError(t, err)

	// A write that bypasses the journal.
	require.NoError(t, s.Insert(ctx, []byte{1, 0, 0, 0}, u32(7)))

	res, err := Replay(ctx, s, dispatch.NewRegistry())
	require.NoError(t, err)
	assert.Empty(t, res.Mismatches)
	assert.NotEqual(t, res.StoredDigest, res.StateDigest)
	assert.False(t, res.OK())
}

func TestReplay_ReportsCallsThatNoLongerRun(t *testing.T) {
	e, s := startEngine(t)
	ctx := context.Background()

	_, err := e.Instantiate(ctx, alice, "default")
	require.NoError(t, err)
	r := addAlice(t, e)

	_, err = s.DB().ExecContext(ctx, `UPDATE calls SET message = 'gone' WHERE id = ?`, r.Call.ID)
	require.NoError(t, err)

	res, err := Replay(ctx, s, dispatch.NewRegistry())
	require.NoError(t, err)
	require.Len(t, res.Mismatches, 1)
	assert.Contains(t, res.Mismatches[0].Reason, "call failed on replay")
	assert.NotEqual(t, res.StoredDigest, res.StateDigest, "skipped call leaves its cells unexplained")
}
