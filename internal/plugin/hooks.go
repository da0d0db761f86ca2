package plugin

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ayusman/posetris/internal/session"
	"github.com/ayusman/posetris/internal/store"
)

// ActionLister looks up the actions bound to an event.
type ActionLister interface {
	ListByEvent(event string) ([]*store.Action, error)
}

// Lookup resolves plugins by name.
type Lookup interface {
	Get(name string) (*Plugin, error)
}

// Result reports one hook run.
type Result struct {
	Event    session.EventType
	Plugin   string
	Action   string
	Response *Response
	Err      error
}

// Hooks runs the plugin actions bound to game events. Each run has its own goroutine.
type Hooks struct {
	actions ActionLister
	plugins Lookup
	exec    *Executor
	logger  zerolog.Logger

	// OnResult, if set, is called after every run from the run's goroutine.
	OnResult func(Result)

	wg sync.WaitGroup
}

// NewHooks creates a dispatcher.
func NewHooks(actions ActionLister, plugins Lookup, exec *Executor) *Hooks {
	return &Hooks{
		actions: actions,
		plugins: plugins,
		exec:    exec,
		logger:  log.With().Str("component", "hooks").Logger(),
	}
}

// Dispatch starts every enabled action bound to the event and returns how many were started.
func (h *Hooks) Dispatch(ctx context.Context, e session.Event) int {
	if h == nil || h.actions == nil {
		return 0
	}

	actions, err := h.actions.ListByEvent(string(e.Type))
	if err != nil {
		h.logger.Error().Err(err).Str("event", string(e.Type)).Msg("failed to list actions")
		return 0
	}

	started := 0
	for _, a := range actions {
		p, err := h.plugins.Get(a.PluginName)
		if err != nil {
			h.report(Result{Event: e.Type, Plugin: a.PluginName, Action: a.ActionName, Err: err})
			continue
		}

		req := &Request{
			Action:   a.ActionName,
			Event:    string(e.Type),
			Template: e.Template,
			Lines:    e.Lines,
			Score:    e.Score,
			Config:   a.Config,
		}

		started++
		h.wg.Add(1)
		go func(p *Plugin, req *Request) {
			defer h.wg.Done()
			resp, err := h.exec.Execute(ctx, p, req)
			if err == nil && !resp.Success {
				h.logger.Warn().Str("plugin", p.Manifest.Name).Str("error", resp.Error).Msg("plugin reported failure")
			}
			h.report(Result{Event: e.Type, Plugin: p.Manifest.Name, Action: req.Action, Response: resp, Err: err})
		}(p, req)
	}
	return started
}

// Wait blocks until every started run has finished.
func (h *Hooks) Wait() {
	h.wg.Wait()
}

func (h *Hooks) report(r Result) {
	if r.Err != nil {
		h.logger.Error().Err(r.Err).
			Str("event", string(r.Event)).
			Str("plugin", r.Plugin).
			Str("action", r.Action).
			Msg("hook failed")
	} else {
		h.logger.Debug().Str("event", string(r.Event)).Str("plugin", r.Plugin).Msg("hook ran")
	}
	if h.OnResult != nil {
		h.OnResult(r)
	}
}
