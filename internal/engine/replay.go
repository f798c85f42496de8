package engine

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/advcases/internal/contract"
	"github.com/roach88/advcases/internal/dispatch"
	"github.com/roach88/advcases/internal/ir"
	"github.com/roach88/advcases/internal/storage"
	"github.com/roach88/advcases/internal/store"
)

// Mismatch is a journaled call whose re-execution disagreed with the record.
type Mismatch struct {
	CallID  string `json:"call_id"`
	Seq     int64  `json:"seq"`
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

// ReplayResult reports a journal replay.
type ReplayResult struct {
	Calls      int        `json:"calls"`
	Mismatches []Mismatch `json:"mismatches"`

	// StateDigest hashes the cells rebuilt by replay; StoredDigest hashes
	// the cells in the store. They agree when the journal explains storage.
	StateDigest  string `json:"state_digest"`
	StoredDigest string `json:"stored_digest"`
}

// OK reports whether every call reproduced and the digests agree.
func (r *ReplayResult) OK() bool {
	return len(r.Mismatches) == 0 && r.StateDigest == r.StoredDigest
}

// Replay re-executes the journal of s, in seq order, against an empty
// in-memory backend. Each call must reproduce its recorded output byte for
// byte and its recorded write count. The store itself is only read.
func Replay(ctx context.Context, s *store.Store, reg *dispatch.Registry) (*ReplayResult, error) {
	calls, err := s.ReadCalls(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	mem, err := storage.NewMemBackend()
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	res := &ReplayResult{Calls: len(calls), Mismatches: []Mismatch{}}
	for _, call := range calls {
		overlay := storage.NewOverlay(mem)
		reason, err := reexecute(ctx, reg, contract.New(overlay), call)
		if err != nil {
			reason = fmt.Sprintf("call failed on replay: %v", err)
		} else if reason == "" && overlay.Len() != call.Writes {
			reason = fmt.Sprintf("wrote %d cells, journal records %d", overlay.Len(), call.Writes)
		}
		if reason != "" {
			res.Mismatches = append(res.Mismatches, Mismatch{
				CallID:  call.ID,
				Seq:     call.Seq,
				Message: call.Message,
				Reason:  reason,
			})
		}
		if err != nil {
			continue
		}
		if err := mem.Apply(ctx, overlay.Writes()); err != nil {
			return nil, fmt.Errorf("replay %s: %w", call.ID, err)
		}
	}

	rebuilt, err := mem.Cells(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	stored, err := s.Cells(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	res.StateDigest = storage.StateDigest(rebuilt)
	res.StoredDigest = storage.StateDigest(stored)

	slog.Info("replay finished",
		"calls", res.Calls,
		"mismatches", len(res.Mismatches),
		"state_digest", res.StateDigest,
		"matches_store", res.StateDigest == res.StoredDigest,
	)
	return res, nil
}

// reexecute runs one journaled call. A non-empty reason means the call ran
// but disagreed with the journal.
func reexecute(ctx context.Context, reg *dispatch.Registry, c *contract.AdvCases, call ir.Call) (string, error) {
	switch call.Kind {
	case ir.CallInstantiate:
		return "", reg.Instantiate(ctx, c, call.Message, call.Input)

	case ir.CallTransact:
		m, err := reg.Lookup(call.Message)
		if err != nil {
			return "", err
		}
		if m.Selector.String() != call.Selector {
			return fmt.Sprintf("selector %s, journal records %s", m.Selector, call.Selector), nil
		}
		out, err := reg.Call(ctx, c, m, call.Input)
		if err != nil {
			return "", err
		}
		if !bytes.Equal(out, call.Output) {
			return fmt.Sprintf("output %x, journal records %x", out, call.Output), nil
		}
		return "", nil

	default:
		return "", fmt.Errorf("journal holds a %q call", call.Kind)
	}
}
