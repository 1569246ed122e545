// Package pattern implements the matchers evaluated against user utterances.
//
// A pattern is a small tree of literal phrases, ontology terms, alternatives,
// sequences, negations, free captures and variable assignments. Patterns are
// usually written in a compact text form and compiled with Parse:
//
//	{yes, yeah, "of course"}            any of the phrases
//	$device=#ONT(playstation)           bind device to "playstation" if any of its surface forms occurs
//	$device={#ONT(atari), atari}        alternatives with an assignment
//	[!not, {sure, ok}]                  "sure" or "ok", but not if "not" appears anywhere
//	[my favorite is, $fav_game=*]       capture what follows
//
// Matching is token-level and case-insensitive. A pattern does not need to
// cover the whole utterance.
package pattern

import (
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/arcade/pkg/ontology"
)

// Pattern is a compiled matcher node.
type Pattern interface {
	// match offers every way the node can match at or after token index from
	// to accept, most preferred first, and stops at the first one accepted.
	match(in *input, from int, accept func(span) bool) bool
	String() string
}

// span is the region a node matched, plus what it bound.
type span struct {
	start, end int
	// term is the canonical ontology term when the match came from one.
	term  string
	binds map[string]string
}

func (s span) text(in *input) string {
	if s.end <= s.start {
		return ""
	}
	return strings.Join(in.raw[s.start:s.end], " ")
}

// merge returns a new map holding a and b, b winning. Branches share maps,
// so neither argument is modified.
func merge(a, b map[string]string) map[string]string {
	if len(b) == 0 {
		return a
	}
	if len(a) == 0 {
		return b
	}
	out := make(map[string]string, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Literal matches a phrase as a run of consecutive tokens.
type Literal struct {
	Phrase string
	tokens []string
}

// NewLiteral builds a literal phrase matcher.
func NewLiteral(phrase string) *Literal {
	return &Literal{Phrase: ontology.Normalize(phrase), tokens: ontology.Tokenize(phrase)}
}

func (l *Literal) match(in *input, from int, accept func(span) bool) bool {
	for i := ontology.IndexPhrase(in.tokens, l.tokens, from); i >= 0; i = ontology.IndexPhrase(in.tokens, l.tokens, i+1) {
		if accept(span{start: i, end: i + len(l.tokens)}) {
			return true
		}
	}
	return false
}

func (l *Literal) String() string {
	if strings.ContainsAny(l.Phrase, ",{}[]()!$#*\"=") {
		return strconv.Quote(l.Phrase)
	}
	return l.Phrase
}

// Term matches any surface form of an ontology term. Earlier occurrences
// come first, and at one position the longer surface form.
type Term struct {
	Name string
}

func (t *Term) match(in *input, from int, accept func(span) bool) bool {
	var spans []span
	for _, form := range in.expand(t.Name) {
		for i := ontology.IndexPhrase(in.tokens, form, from); i >= 0; i = ontology.IndexPhrase(in.tokens, form, i+1) {
			spans = append(spans, span{start: i, end: i + len(form), term: t.Name})
		}
	}
	sort.SliceStable(spans, func(a, b int) bool {
		if spans[a].start != spans[b].start {
			return spans[a].start < spans[b].start
		}
		return spans[a].end > spans[b].end
	})
	for i, s := range spans {
		if i > 0 && s.start == spans[i-1].start && s.end == spans[i-1].end {
			continue
		}
		if accept(s) {
			return true
		}
	}
	return false
}

func (t *Term) String() string {
	return "#ONT(" + t.Name + ")"
}

// AnyOf matches if any option matches. Options are tried in order; a later
// option is only tried when the earlier ones cannot complete the match.
type AnyOf struct {
	Options []Pattern
}

func (a *AnyOf) match(in *input, from int, accept func(span) bool) bool {
	for _, opt := range a.Options {
		if opt.match(in, from, accept) {
			return true
		}
	}
	return false
}

func (a *AnyOf) String() string {
	return "{" + join(a.Options) + "}"
}

// Seq matches its items in order. Gaps between items are allowed.
type Seq struct {
	Items []Pattern
}

func (q *Seq) match(in *input, from int, accept func(span) bool) bool {
	return q.matchFrom(in, 0, from, span{start: -1}, func(out span) bool {
		if out.start < 0 {
			out.start, out.end = from, from
		}
		return accept(out)
	})
}

// matchFrom matches Items[i:] at or after pos, extending acc.
func (q *Seq) matchFrom(in *input, i, pos int, acc span, accept func(span) bool) bool {
	if i == len(q.Items) {
		return accept(acc)
	}
	return q.Items[i].match(in, pos, func(s span) bool {
		next, nextPos := acc, pos
		if s.end > s.start {
			if next.start < 0 {
				next.start = s.start
			}
			next.end = s.end
			nextPos = s.end
		}
		next.binds = merge(acc.binds, s.binds)
		return q.matchFrom(in, i+1, nextPos, next, accept)
	})
}

func (q *Seq) String() string {
	return "[" + join(q.Items) + "]"
}

// Not matches when its child does not match anywhere in the utterance.
// It consumes nothing.
type Not struct {
	Child Pattern
}

func (n *Not) match(in *input, from int, accept func(span) bool) bool {
	if n.Child.match(in, 0, func(span) bool { return true }) {
		return false
	}
	return accept(span{start: from, end: from})
}

func (n *Not) String() string {
	return "!" + n.Child.String()
}

// Capture takes at least one token starting where it is tried, up to Max of
// them. A zero Max uses the matcher's capture limit. The longest run comes
// first, so inside a sequence it gives back only what later items need.
type Capture struct {
	Max int
}

func (c *Capture) match(in *input, from int, accept func(span) bool) bool {
	limit := c.Max
	if limit <= 0 {
		limit = in.captureLimit
	}
	end := len(in.tokens)
	if limit > 0 && from+limit < end {
		end = from + limit
	}
	for ; end > from; end-- {
		if accept(span{start: from, end: end}) {
			return true
		}
	}
	return false
}

func (c *Capture) String() string {
	return "*"
}

// Assign binds Var to what Child matched: the canonical term for ontology
// matches, otherwise the raw matched text.
type Assign struct {
	Var   string
	Child Pattern
}

func (a *Assign) match(in *input, from int, accept func(span) bool) bool {
	return a.Child.match(in, from, func(s span) bool {
		value := s.term
		if value == "" {
			value = s.text(in)
		}
		s.binds = merge(s.binds, map[string]string{a.Var: value})
		return accept(s)
	})
}

func (a *Assign) String() string {
	return "$" + a.Var + "=" + a.Child.String()
}

func join(items []Pattern) string {
	parts := make([]string, len(items))
	for i, p := range items {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

// Walk visits p and all of its descendants, depth first.
func Walk(p Pattern, fn func(Pattern)) {
	if p == nil {
		return
	}
	fn(p)
	switch n := p.(type) {
	case *AnyOf:
		for _, o := range n.Options {
			Walk(o, fn)
		}
	case *Seq:
		for _, i := range n.Items {
			Walk(i, fn)
		}
	case *Not:
		Walk(n.Child, fn)
	case *Assign:
		Walk(n.Child, fn)
	}
}

// Terms returns the ontology terms referenced by p.
func Terms(p Pattern) []string {
	var terms []string
	Walk(p, func(n Pattern) {
		if t, ok := n.(*Term); ok {
			terms = append(terms, t.Name)
		}
	})
	return terms
}

// Vars returns the variables p may bind.
func Vars(p Pattern) []string {
	var vars []string
	Walk(p, func(n Pattern) {
		if a, ok := n.(*Assign); ok {
			vars = append(vars, a.Var)
		}
	})
	return vars
}
