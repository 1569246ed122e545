package runtime

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/arcade/pkg/domain"
	"github.com/aretw0/arcade/pkg/pattern"
	"github.com/aretw0/arcade/pkg/template"
)

// compile parses every pattern and template and checks the graph as a whole.
// All issues are collected before failing.
func (e *Engine) compile() error {
	if e.graph == nil {
		return &domain.GraphValidationError{Issues: []string{"graph is nil"}}
	}

	var issues []string
	report := func(format string, args ...any) {
		issues = append(issues, fmt.Sprintf(format, args...))
	}

	ids := stateOrder(e.graph)
	e.nodes = make(map[domain.StateID]*compiledNode, len(ids))
	bound := make(domain.Set)
	for _, v := range e.variables {
		bound.Add(v)
	}
	for _, v := range e.macros.Writes() {
		bound.Add(v)
	}

	// First pass: structure and patterns, collecting every bound variable.
	for _, id := range ids {
		node := e.graph.Nodes[id]
		if node == nil {
			report("state %s: definition is nil", id)
			continue
		}
		if node.ID != "" && node.ID != id {
			report("state %s: registered under a different id %q", node.ID, id)
		}
		cn := &compiledNode{Node: node}
		e.nodes[id] = cn

		if !node.Speaker.Valid() {
			report("state %s: unknown speaker %q", id, node.Speaker)
		}
		if node.Speaker == domain.SpeakerSystem && len(node.Transitions) > 1 {
			report("state %s: system state has %d transitions, want at most 1", id, len(node.Transitions))
		}
		if node.ErrorSuccessor != "" && !e.exists(node.ErrorSuccessor) {
			report("state %s: error successor targets unknown state %q", id, node.ErrorSuccessor)
		}

		cn.templates = make([]*template.Template, len(node.Transitions))
		cn.patterns = make([]pattern.Pattern, len(node.Transitions))
		for i, t := range node.Transitions {
			if !e.exists(t.To) {
				report("state %s: transition %d targets unknown state %q", id, i, t.To)
			}
			if t.Speaker != node.Speaker {
				report("state %s: transition %d is a %s transition in a %s state", id, i, t.Speaker, node.Speaker)
				continue
			}
			if t.Speaker != domain.SpeakerUser {
				continue
			}
			p, err := pattern.Parse(t.Pattern)
			if err != nil {
				report("state %s: transition %d: %v", id, i, err)
				continue
			}
			cn.patterns[i] = p
			for _, term := range pattern.Terms(p) {
				if e.ontology == nil || !e.ontology.Has(term) {
					report("state %s: transition %d: unknown ontology term %q", id, i, term)
				}
			}
			for _, v := range pattern.Vars(p) {
				bound.Add(v)
			}
		}
	}

	// Second pass: templates, now that every binding site is known.
	for _, id := range ids {
		cn := e.nodes[id]
		if cn == nil || cn.Speaker != domain.SpeakerSystem {
			continue
		}
		for i, t := range cn.Transitions {
			if t.Speaker != domain.SpeakerSystem {
				continue
			}
			tmpl, err := template.Parse(t.Template)
			if err != nil {
				report("state %s: transition %d: %v", id, i, err)
				continue
			}
			cn.templates[i] = tmpl
			for _, name := range tmpl.Macros() {
				if _, ok := e.macros.Lookup(name); !ok {
					report("state %s: template references unknown macro #%s", id, name)
				}
			}
			for _, v := range tmpl.Vars() {
				if !bound.Has(v) {
					report("state %s: template references unbound variable $%s", id, v)
				}
			}
		}
	}

	if e.graph.Start == "" {
		report("start state is not set")
	} else if !e.exists(e.graph.Start) {
		report("start state %q is not defined", e.graph.Start)
	}
	if e.fallbackState != "" && !e.exists(e.fallbackState) {
		report("fallback state %q is not defined", e.fallbackState)
	}

	if len(issues) == 0 {
		for _, id := range e.unreachable(ids) {
			report("state %s is unreachable from %s", id, e.graph.Start)
		}
		if loop := e.systemLoop(ids); len(loop) > 0 {
			report("system states loop without a user turn: %s", joinIDs(loop))
		}
	}

	if len(issues) > 0 {
		return &domain.GraphValidationError{Issues: issues}
	}
	return nil
}

func (e *Engine) exists(id domain.StateID) bool {
	n, ok := e.graph.Nodes[id]
	return ok && n != nil
}

// stateOrder returns the graph's declared order followed by any other
// states, sorted, so validation output is deterministic.
func stateOrder(g *domain.Graph) []domain.StateID {
	seen := make(map[domain.StateID]bool, len(g.Nodes))
	var ids []domain.StateID
	for _, id := range g.Order {
		if _, ok := g.Nodes[id]; ok && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	var rest []domain.StateID
	for id := range g.Nodes {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(ids, rest...)
}

func successors(n *compiledNode) []domain.StateID {
	out := make([]domain.StateID, 0, len(n.Transitions)+1)
	for _, t := range n.Transitions {
		out = append(out, t.To)
	}
	if n.ErrorSuccessor != "" {
		out = append(out, n.ErrorSuccessor)
	}
	return out
}

// unreachable returns the states no path from the start state (or the
// fallback state, which any user state may be forced into) leads to.
func (e *Engine) unreachable(ids []domain.StateID) []domain.StateID {
	visited := make(map[domain.StateID]bool)
	queue := []domain.StateID{e.graph.Start}
	if e.fallbackState != "" {
		queue = append(queue, e.fallbackState)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		for _, next := range successors(e.nodes[id]) {
			if !visited[next] {
				queue = append(queue, next)
			}
		}
	}

	var out []domain.StateID
	for _, id := range ids {
		if !visited[id] {
			out = append(out, id)
		}
	}
	return out
}

// systemLoop finds a cycle made only of system states, which Step would
// never leave.
func (e *Engine) systemLoop(ids []domain.StateID) []domain.StateID {
	next := func(id domain.StateID) (domain.StateID, bool) {
		n := e.nodes[id]
		if n.Speaker != domain.SpeakerSystem || n.IsTerminal() {
			return "", false
		}
		if len(n.Transitions) > 0 {
			return n.Transitions[0].To, true
		}
		return n.ErrorSuccessor, true
	}

	done := make(map[domain.StateID]bool)
	for _, id := range ids {
		var path []domain.StateID
		onPath := make(map[domain.StateID]int)
		cur := id
		for !done[cur] {
			if at, ok := onPath[cur]; ok {
				return append(path[at:], cur)
			}
			onPath[cur] = len(path)
			path = append(path, cur)
			n, ok := next(cur)
			if !ok {
				break
			}
			cur = n
		}
		for _, p := range path {
			done[p] = true
		}
	}
	return nil
}

func joinIDs(ids []domain.StateID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, " -> ")
}
