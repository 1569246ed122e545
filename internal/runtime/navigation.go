package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/arcade/pkg/domain"
)

// listen evaluates the user transitions of node against utterance.
// It returns the node the session moved to, or a *domain.NoMatchError when
// nothing matched and there is nowhere to go. A registered error successor
// is always followed; the fallback state replaces only the NoMatchError once
// the miss cap is reached.
func (e *Engine) listen(ctx context.Context, s *domain.Session, node *compiledNode, utterance string, turn *domain.Turn) (*compiledNode, error) {
	for i, p := range node.patterns {
		bindings, ok := e.matcher.Match(p, utterance)
		if !ok {
			continue
		}
		t := node.Transitions[i]
		s.Vars.Apply(bindings)
		s.Misses = 0
		turn.Matched = t.To
		e.logger.Debug("Transition matched",
			"session_id", s.ID,
			"state", node.ID,
			"target", t.To,
			"pattern", t.Pattern,
		)
		return e.moveTo(ctx, s, node, t.To), nil
	}

	s.Misses++
	target := node.ErrorSuccessor
	// The miss cap only applies where there is no error successor to follow.
	forced := target == "" && e.fallbackState != "" && s.Misses >= e.missLimit
	if forced {
		target = e.fallbackState
	}
	e.emitNoMatch(ctx, s, node, utterance, target)

	if target == "" {
		e.logger.Debug("No transition matched", "session_id", s.ID, "state", node.ID, "attempt", s.Misses)
		return nil, &domain.NoMatchError{State: node.ID, Utterance: utterance, Attempts: s.Misses}
	}
	if forced {
		e.logger.Info("Miss limit reached, forcing fallback",
			"session_id", s.ID,
			"state", node.ID,
			"fallback", target,
			"misses", s.Misses,
		)
		s.Misses = 0
	}
	return e.moveTo(ctx, s, node, target), nil
}

// speak renders system states until the session rests on a user or terminal state.
func (e *Engine) speak(ctx context.Context, s *domain.Session, node *compiledNode, turn *domain.Turn) (*compiledNode, error) {
	for hops := 0; node.Speaker == domain.SpeakerSystem && !node.IsTerminal(); hops++ {
		if hops > len(e.nodes) {
			return node, fmt.Errorf("system states loop at %s", node.ID)
		}
		if len(node.Transitions) == 0 {
			// A system state with only an error successor hands over silently.
			node = e.moveTo(ctx, s, node, node.ErrorSuccessor)
			continue
		}
		if text := e.render(ctx, s, node, node.templates[0]); text != "" {
			turn.Output = append(turn.Output, text)
		}
		node = e.moveTo(ctx, s, node, node.Transitions[0].To)
	}
	return node, nil
}

// moveTo leaves from and enters target. target is known to exist once the
// graph compiled.
func (e *Engine) moveTo(ctx context.Context, s *domain.Session, from *compiledNode, target domain.StateID) *compiledNode {
	next := e.nodes[target]
	e.emitStateLeave(ctx, s, from)
	s.Current = target
	s.History = append(s.History, target)
	e.emitStateEnter(ctx, s, next)
	return next
}
