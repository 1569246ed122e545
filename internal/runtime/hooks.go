package runtime

import (
	"context"
	"time"

	"github.com/aretw0/arcade/pkg/domain"
	"github.com/aretw0/arcade/pkg/template"
)

func (e *Engine) base(s *domain.Session, t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, SessionID: s.ID}
}

func (e *Engine) emitStateEnter(ctx context.Context, s *domain.Session, node *compiledNode) {
	if e.hooks.OnStateEnter == nil {
		return
	}
	e.hooks.OnStateEnter(ctx, &domain.StateEvent{
		EventBase: e.base(s, domain.EventStateEnter),
		StateID:   node.ID,
		Speaker:   node.Speaker,
		Initial:   len(s.History) == 1,
	})
}

func (e *Engine) emitStateLeave(ctx context.Context, s *domain.Session, node *compiledNode) {
	if e.hooks.OnStateLeave == nil {
		return
	}
	e.hooks.OnStateLeave(ctx, &domain.StateEvent{
		EventBase: e.base(s, domain.EventStateLeave),
		StateID:   node.ID,
		Speaker:   node.Speaker,
	})
}

func (e *Engine) emitMacroCall(ctx context.Context, s *domain.Session, node *compiledNode, seg template.Segment) {
	if e.hooks.OnMacroCall == nil {
		return
	}
	e.hooks.OnMacroCall(ctx, &domain.MacroEvent{
		EventBase: e.base(s, domain.EventMacroCall),
		StateID:   node.ID,
		Macro:     seg.Value,
		Args:      seg.Args,
	})
}

func (e *Engine) emitMacroReturn(ctx context.Context, s *domain.Session, node *compiledNode, seg template.Segment, out string, isErr bool, d time.Duration) {
	if e.hooks.OnMacroReturn == nil {
		return
	}
	e.hooks.OnMacroReturn(ctx, &domain.MacroEvent{
		EventBase: e.base(s, domain.EventMacroReturn),
		StateID:   node.ID,
		Macro:     seg.Value,
		Args:      seg.Args,
		Output:    out,
		IsError:   isErr,
		Duration:  d,
	})
}

func (e *Engine) emitNoMatch(ctx context.Context, s *domain.Session, node *compiledNode, utterance string, fallback domain.StateID) {
	if e.hooks.OnNoMatch == nil {
		return
	}
	e.hooks.OnNoMatch(ctx, &domain.NoMatchEvent{
		EventBase: e.base(s, domain.EventNoMatch),
		StateID:   node.ID,
		Utterance: utterance,
		Fallback:  fallback,
	})
}
