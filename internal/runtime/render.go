package runtime

import (
	"context"
	"strings"
	"time"

	"github.com/aretw0/arcade/pkg/domain"
	"github.com/aretw0/arcade/pkg/macro"
	"github.com/aretw0/arcade/pkg/template"
)

// render expands a system template for the session. Every macro runs once,
// left to right. A failing macro is logged and renders as empty text.
func (e *Engine) render(ctx context.Context, s *domain.Session, node *compiledNode, tmpl *template.Template) string {
	recommended := s.RecommendedSet()

	text := tmpl.Expand(func(seg template.Segment) string {
		if seg.Kind == template.Var {
			if v, ok := s.Vars.String(seg.Value); ok {
				return v
			}
			return e.unknown
		}
		return e.callMacro(ctx, s, node, seg, recommended)
	})

	for _, item := range recommended.Items() {
		if !contains(s.Recommended, item) {
			s.Recommended = append(s.Recommended, item)
		}
	}
	return strings.TrimSpace(text)
}

func (e *Engine) callMacro(ctx context.Context, s *domain.Session, node *compiledNode, seg template.Segment, recommended domain.Set) string {
	env := &macro.Env{
		SessionID:   s.ID,
		State:       node.ID,
		Vars:        s.Vars,
		Recommended: recommended,
		Args:        seg.Args,
	}
	e.emitMacroCall(ctx, s, node, seg)

	start := time.Now()
	out, err := e.macros.Call(ctx, seg.Value, env)
	elapsed := time.Since(start)

	if err != nil {
		mErr := &domain.MacroError{Macro: seg.Value, State: node.ID, Err: err}
		e.logger.Warn("Macro failed",
			"session_id", s.ID,
			"state", node.ID,
			"macro", seg.Value,
			"err", mErr,
		)
		out = ""
	}
	e.emitMacroReturn(ctx, s, node, seg, out, err != nil, elapsed)
	return out
}

func contains(items []string, item string) bool {
	for _, i := range items {
		if i == item {
			return true
		}
	}
	return false
}
