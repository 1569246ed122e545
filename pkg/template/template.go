// Package template parses system utterance templates.
//
// A template is literal text with two kinds of references:
//
//	$name           the value of a conversation variable
//	#NAME           a macro call with no arguments
//	#NAME(a, b)     a macro call with arguments
//
// "$$" and "##" produce a literal "$" and "#". A "$" or "#" that does not
// start a reference is kept as text.
package template

import (
	"fmt"
	"strings"
)

// Kind identifies a segment type.
type Kind int

const (
	// Text is literal text, passed through unchanged.
	Text Kind = iota
	// Var is a $name substitution.
	Var
	// Macro is a #NAME call, with optional literal arguments.
	Macro
)

// Segment is one piece of a parsed template.
type Segment struct {
	Kind Kind
	// Value is the literal text, the variable name or the macro name.
	Value string
	Args  []string
}

// Template is a parsed system utterance.
type Template struct {
	Source   string
	Segments []Segment
}

// SyntaxError reports a malformed template.
type SyntaxError struct {
	Source string
	Pos    int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("template %q: %s at offset %d", e.Source, e.Msg, e.Pos)
}

// Parse splits src into segments.
func Parse(src string) (*Template, error) {
	t := &Template{Source: src}
	var text strings.Builder

	flush := func() {
		if text.Len() > 0 {
			t.Segments = append(t.Segments, Segment{Kind: Text, Value: text.String()})
			text.Reset()
		}
	}

	for i := 0; i < len(src); {
		c := src[i]
		if c != '$' && c != '#' {
			text.WriteByte(c)
			i++
			continue
		}
		if i+1 < len(src) && src[i+1] == c {
			text.WriteByte(c)
			i += 2
			continue
		}

		if c == '$' {
			name := scan(src, i+1, isVarChar)
			if name == "" {
				text.WriteByte(c)
				i++
				continue
			}
			flush()
			t.Segments = append(t.Segments, Segment{Kind: Var, Value: name})
			i += 1 + len(name)
			continue
		}

		name := scan(src, i+1, isMacroChar)
		if name == "" || !isUpper(name[0]) {
			text.WriteByte(c)
			i++
			continue
		}
		flush()
		i += 1 + len(name)
		seg := Segment{Kind: Macro, Value: name}
		if i < len(src) && src[i] == '(' {
			end := strings.IndexByte(src[i:], ')')
			if end < 0 {
				return nil, &SyntaxError{Source: src, Pos: i, Msg: "unterminated macro arguments"}
			}
			seg.Args = splitArgs(src[i+1 : i+end])
			i += end + 1
		}
		t.Segments = append(t.Segments, seg)
	}
	flush()
	return t, nil
}

// MustParse is like Parse but panics on error.
func MustParse(src string) *Template {
	t, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return t
}

// Vars returns the variable names referenced, in order of appearance.
func (t *Template) Vars() []string {
	return t.names(Var)
}

// Macros returns the macro names invoked, in order of appearance.
func (t *Template) Macros() []string {
	return t.names(Macro)
}

func (t *Template) names(kind Kind) []string {
	var out []string
	for _, s := range t.Segments {
		if s.Kind == kind {
			out = append(out, s.Value)
		}
	}
	return out
}

// Expand concatenates the segments, asking resolve for the text of every
// variable and macro segment. Segments are visited left to right.
func (t *Template) Expand(resolve func(Segment) string) string {
	var b strings.Builder
	for _, s := range t.Segments {
		if s.Kind == Text {
			b.WriteString(s.Value)
			continue
		}
		b.WriteString(resolve(s))
	}
	return b.String()
}

func (t *Template) String() string {
	return t.Source
}

func splitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func scan(s string, from int, ok func(byte) bool) string {
	end := from
	for end < len(s) && ok(s[end]) {
		end++
	}
	return s[from:end]
}

func isVarChar(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

func isMacroChar(c byte) bool {
	return c == '_' || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

func isUpper(c byte) bool {
	return 'A' <= c && c <= 'Z'
}
