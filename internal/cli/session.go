package cli

import (
	"context"
	"log/slog"

	"github.com/roach88/advcases/internal/abi"
	"github.com/roach88/advcases/internal/dispatch"
	"github.com/roach88/advcases/internal/engine"
	"github.com/roach88/advcases/internal/store"
)

// session is an open store with an engine running over it.
type session struct {
	store  *store.Store
	engine *engine.Engine
	caller abi.AccountID

	cancel context.CancelFunc
	done   chan struct{}
}

// openStore opens the configured database.
func (o *RootOptions) openStore() (*store.Store, error) {
	slog.Debug("opening database", "path", o.Config.Database, "driver", o.Config.Driver)
	st, err := store.OpenWith(o.Config.Driver, o.Config.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// openSession opens the store and starts an engine whose clock resumes from
// the journal. Close must be called to stop it.
func (o *RootOptions) openSession(ctx context.Context) (*session, error) {
	caller, err := o.Config.CallerID()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid caller", err)
	}

	st, err := o.openStore()
	if err != nil {
		return nil, err
	}

	eng, err := engine.Resume(ctx, st, dispatch.NewRegistry(), engine.UUIDv7Generator{})
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to start engine", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	s := &session{
		store:  st,
		engine: eng,
		caller: caller,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		if err := eng.Run(runCtx); err != nil && runCtx.Err() == nil {
			slog.Error("engine stopped", "error", err)
		}
	}()
	return s, nil
}

// Close lets the engine finish queued requests, then closes the store.
func (s *session) Close() {
	s.engine.Stop()
	<-s.done
	s.cancel()
	if err := s.store.Close(); err != nil {
		slog.Warn("failed to close database", "error", err)
	}
}
