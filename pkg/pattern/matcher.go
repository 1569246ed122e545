package pattern

import (
	"strings"
	"unicode"

	"github.com/aretw0/arcade/pkg/ontology"
)

// DefaultCaptureLimit bounds how many words a free capture takes.
const DefaultCaptureLimit = 8

// Expander resolves an ontology term into its surface forms.
type Expander interface {
	Has(term string) bool
	Expand(term string) []string
}

// Matcher evaluates patterns against utterances.
type Matcher struct {
	ont          Expander
	captureLimit int
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

// WithCaptureLimit bounds free captures to n words. Zero or less means unbounded.
func WithCaptureLimit(n int) MatcherOption {
	return func(m *Matcher) {
		m.captureLimit = n
	}
}

// NewMatcher creates a matcher. ont may be nil, in which case ontology terms
// never match.
func NewMatcher(ont Expander, opts ...MatcherOption) *Matcher {
	m := &Matcher{ont: ont, captureLimit: DefaultCaptureLimit}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match reports whether p matches utterance and returns the variables it bound.
func (m *Matcher) Match(p Pattern, utterance string) (map[string]string, bool) {
	in := m.newInput(utterance)
	var binds map[string]string
	ok := p.match(in, 0, func(s span) bool {
		binds = s.binds
		return true
	})
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(binds))
	for k, v := range binds {
		out[k] = v
	}
	return out, true
}

type input struct {
	tokens       []string
	raw          []string
	captureLimit int
	ont          Expander
	forms        map[string][][]string
}

func (m *Matcher) newInput(utterance string) *input {
	raw := strings.FieldsFunc(utterance, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, len(raw))
	for i, t := range raw {
		tokens[i] = strings.ToLower(t)
	}
	return &input{
		tokens:       tokens,
		raw:          raw,
		captureLimit: m.captureLimit,
		ont:          m.ont,
		forms:        make(map[string][][]string),
	}
}

// expand returns the tokenized surface forms of term, cached per utterance.
func (in *input) expand(term string) [][]string {
	if forms, ok := in.forms[term]; ok {
		return forms
	}
	var forms [][]string
	if in.ont != nil {
		for _, f := range in.ont.Expand(term) {
			if toks := ontology.Tokenize(f); len(toks) > 0 {
				forms = append(forms, toks)
			}
		}
	}
	in.forms[term] = forms
	return forms
}
