package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/advcases/internal/abi"
	"github.com/roach88/advcases/internal/contract"
	"github.com/roach88/advcases/internal/dispatch"
	"github.com/roach88/advcases/internal/ir"
	"github.com/roach88/advcases/internal/storage"
	"github.com/roach88/advcases/internal/store"
)

// Request names one call for the engine to serve.
type Request struct {
	Kind   ir.CallKind
	Caller abi.AccountID

	// Message is a message label or 0x-prefixed selector. For instantiate it
	// is the constructor label, defaulting to "default". When empty on a
	// query or transaction, Input is raw call data: selector then arguments.
	Message string

	// Input is the SCALE-encoded argument bytes.
	Input []byte
}

// Receipt is the outcome of a served request.
type Receipt struct {
	// Call is the journal row. Queries carry no id and are never stored.
	Call ir.Call

	// Message is the dispatched message; nil for instantiate.
	Message *dispatch.Message
}

type reply struct {
	receipt *Receipt
	err     error
}

type request struct {
	Request
	reply chan reply
}

// Engine is the single-writer host around the record store.
//
// All storage mutation happens in the Run goroutine: every request runs on
// its own storage.Overlay, and a transaction's writes land together with
// its journal row in one store commit. Queries run the same way and are
// then discarded.
//
// Thread-safety model:
//   - Submit, Instantiate, Query, Transact, CallData: safe from any goroutine
//   - Run: must be called from exactly one goroutine
type Engine struct {
	store    *store.Store
	registry *dispatch.Registry
	clock    Sequencer
	queue    *requestQueue
	ids      IDGenerator

	done     chan struct{}
	doneOnce sync.Once
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the engine's sequence source.
func WithClock(c Sequencer) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an Engine over s whose clock starts at 0.
func New(s *store.Store, reg *dispatch.Registry, ids IDGenerator, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		registry: reg,
		clock:    NewClock(),
		queue:    newRequestQueue(),
		ids:      ids,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resume creates an Engine whose clock continues from the journal's last seq.
func Resume(ctx context.Context, s *store.Store, reg *dispatch.Registry, ids IDGenerator, opts ...Option) (*Engine, error) {
	last, err := s.LastSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("resume engine: %w", err)
	}
	opts = append([]Option{WithClock(NewClockAt(last))}, opts...)
	return New(s, reg, ids, opts...), nil
}

// Store returns the engine's store.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Registry returns the engine's message registry.
func (e *Engine) Registry() *dispatch.Registry {
	return e.registry
}

// Run starts the single-writer loop. It blocks until ctx is cancelled or
// Stop is called. Requests still queued when ctx is cancelled are answered
// with ENGINE_STOPPED.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting", "seq", e.clock.Current())
	defer e.doneOnce.Do(func() { close(e.done) })

	for {
		if r, ok := e.queue.TryDequeue(); ok {
			receipt, err := e.execute(ctx, r.Request)
			if err != nil {
				logRequestError(r.Request, err)
			}
			r.reply <- reply{receipt: receipt, err: err}
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled")
			e.queue.Close()
			for _, r := range e.queue.Drain() {
				r.reply <- reply{err: NewStoppedError(r.Message)}
			}
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel is closed with the queue, so this fires
			// repeatedly once Stop is called until the queue drains.
			if e.queue.Finished() {
				slog.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Run finishes the pending requests and returns.
func (e *Engine) Stop() {
	e.queue.Close()
}

// Submit queues req for the Run loop and waits for its outcome.
func (e *Engine) Submit(ctx context.Context, req Request) (*Receipt, error) {
	r := &request{Request: req, reply: make(chan reply, 1)}
	if !e.queue.Enqueue(r) {
		return nil, NewStoppedError(req.Message)
	}

	select {
	case rep := <-r.reply:
		return rep.receipt, rep.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.done:
		select {
		case rep := <-r.reply:
			return rep.receipt, rep.err
		default:
			return nil, NewStoppedError(req.Message)
		}
	}
}

// Instantiate runs the named constructor.
func (e *Engine) Instantiate(ctx context.Context, caller abi.AccountID, label string) (*Receipt, error) {
	return e.Submit(ctx, Request{Kind: ir.CallInstantiate, Caller: caller, Message: label})
}

// Query dry-runs a message. Nothing it writes is kept or journaled.
func (e *Engine) Query(ctx context.Context, caller abi.AccountID, message string, input []byte) (*Receipt, error) {
	return e.Submit(ctx, Request{Kind: ir.CallQuery, Caller: caller, Message: message, Input: input})
}

// Transact runs a message and commits its writes with a journal row.
func (e *Engine) Transact(ctx context.Context, caller abi.AccountID, message string, input []byte) (*Receipt, error) {
	return e.Submit(ctx, Request{Kind: ir.CallTransact, Caller: caller, Message: message, Input: input})
}

// CallData dispatches raw call data (selector then arguments) as a query,
// or as a transaction when tx is set.
func (e *Engine) CallData(ctx context.Context, caller abi.AccountID, data []byte, tx bool) (*Receipt, error) {
	kind := ir.CallQuery
	if tx {
		kind = ir.CallTransact
	}
	return e.Submit(ctx, Request{Kind: kind, Caller: caller, Input: data})
}

// State decodes the committed storage.
func (e *Engine) State(ctx context.Context) (contract.State, error) {
	cells, err := e.store.Cells(ctx)
	if err != nil {
		return contract.State{}, fmt.Errorf("read state: %w", err)
	}
	return contract.Snapshot(cells)
}

func (e *Engine) execute(ctx context.Context, req Request) (*Receipt, error) {
	switch req.Kind {
	case ir.CallInstantiate:
		return e.instantiate(ctx, req)
	case ir.CallQuery, ir.CallTransact:
		return e.call(ctx, req)
	default:
		return nil, fmt.Errorf("unknown call kind %q", req.Kind)
	}
}

func (e *Engine) instantiate(ctx context.Context, req Request) (*Receipt, error) {
	label := req.Message
	if label == "" {
		label = "default"
	}

	done, err := contract.New(e.store).Instantiated(ctx)
	if err != nil {
		return nil, newRuntimeError(ErrCodeDispatchFailed, label, "read instantiation marker", err)
	}
	if done {
		return nil, newRuntimeError(ErrCodeAlreadyInstantiated, label, "storage is already initialised", nil)
	}

	ctor, err := e.registry.Constructor(label)
	if err != nil {
		return nil, newRuntimeError(ErrCodeDispatchFailed, label, "constructor failed", err)
	}
	overlay := storage.NewOverlay(e.store)
	if err := e.registry.Instantiate(ctx, contract.New(overlay), label, req.Input); err != nil {
		return nil, newRuntimeError(ErrCodeDispatchFailed, label, "constructor failed", err)
	}

	call := ir.Call{
		Kind:     ir.CallInstantiate,
		Caller:   req.Caller.String(),
		Message:  ctor.Label,
		Selector: ctor.Selector.String(),
		Input:    req.Input,
		Output:   []byte{},
	}
	if err := e.commit(ctx, overlay, &call); err != nil {
		return nil, err
	}
	return &Receipt{Call: call}, nil
}

func (e *Engine) call(ctx context.Context, req Request) (*Receipt, error) {
	done, err := contract.New(e.store).Instantiated(ctx)
	if err != nil {
		return nil, newRuntimeError(ErrCodeDispatchFailed, req.Message, "read instantiation marker", err)
	}
	if !done {
		return nil, newRuntimeError(ErrCodeNotInstantiated, req.Message, "run a constructor first", nil)
	}

	overlay := storage.NewOverlay(e.store)
	c := contract.New(overlay)

	var (
		m     *dispatch.Message
		out   []byte
		input = req.Input
	)
	if req.Message == "" {
		m, out, err = e.registry.CallData(ctx, c, req.Input)
		if m != nil {
			input = req.Input[4:]
		}
	} else {
		m, err = e.registry.Lookup(req.Message)
		if err == nil {
			out, err = e.registry.Call(ctx, c, m, req.Input)
		}
	}
	if err != nil {
		label := req.Message
		if m != nil {
			label = m.Label
		}
		return nil, newRuntimeError(ErrCodeDispatchFailed, label, "call failed", err)
	}

	call := ir.Call{
		Kind:     req.Kind,
		Caller:   req.Caller.String(),
		Message:  m.Label,
		Selector: m.Selector.String(),
		Input:    input,
		Output:   out,
	}

	if req.Kind == ir.CallQuery {
		call.Seq = e.clock.Current()
		call.Writes = overlay.Len()
		overlay.Discard()
		slog.Debug("query served",
			"message", call.Message,
			"dry_run_writes", call.Writes,
		)
		return &Receipt{Call: call, Message: m}, nil
	}

	if err := e.commit(ctx, overlay, &call); err != nil {
		return nil, err
	}
	return &Receipt{Call: call, Message: m}, nil
}

// commit stamps call and writes it with the overlay's buffered writes. The
// clock only advances once the store has accepted the commit.
func (e *Engine) commit(ctx context.Context, overlay *storage.Overlay, call *ir.Call) error {
	writes := overlay.Writes()
	call.ID = e.ids.Generate()
	call.Seq = e.clock.Current() + 1
	call.Writes = len(writes)

	if err := e.store.Commit(ctx, writes, *call); err != nil {
		return newRuntimeError(ErrCodeCommitFailed, call.Message, "store rejected the call", err)
	}
	e.clock.Next()

	slog.Info("call committed",
		"id", call.ID,
		"seq", call.Seq,
		"kind", call.Kind,
		"message", call.Message,
		"writes", call.Writes,
	)
	return nil
}

func logRequestError(req Request, err error) {
	slog.Warn("request failed",
		"kind", req.Kind,
		"message", req.Message,
		"code", ErrorCode(err),
		"error", err,
	)
}
