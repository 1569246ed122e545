package pattern

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/aretw0/arcade/pkg/ontology"
)

// SyntaxError reports a malformed pattern.
type SyntaxError struct {
	Source string
	Pos    int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("pattern %q: %s at offset %d", e.Source, e.Msg, e.Pos)
}

// MustParse is like Parse but panics on error.
func MustParse(src string) Pattern {
	p, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return p
}

// Parse compiles the text form of a pattern.
func Parse(src string) (Pattern, error) {
	p := &parser{src: src}
	p.skipSpace()
	if p.eof() {
		return nil, p.errorf("empty pattern")
	}
	node, err := p.item()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.errorf("unexpected %q", p.peek())
	}
	return node, nil
}

const delimiters = ",{}[]()!$#*\"="

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte { return p.src[p.pos] }

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Source: p.src, Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) skipSpace() {
	for !p.eof() && unicode.IsSpace(rune(p.peek())) {
		p.pos++
	}
}

func (p *parser) expect(c byte) error {
	p.skipSpace()
	if p.eof() {
		return p.errorf("expected %q, got end of pattern", c)
	}
	if p.peek() != c {
		return p.errorf("expected %q, got %q", c, p.peek())
	}
	p.pos++
	return nil
}

func (p *parser) item() (Pattern, error) {
	p.skipSpace()
	if p.eof() {
		return nil, p.errorf("unexpected end of pattern")
	}
	switch c := p.peek(); c {
	case '!':
		p.pos++
		child, err := p.item()
		if err != nil {
			return nil, err
		}
		return &Not{Child: child}, nil
	case '$':
		return p.assign()
	case '{':
		p.pos++
		items, err := p.list('}')
		if err != nil {
			return nil, err
		}
		return &AnyOf{Options: items}, nil
	case '[':
		p.pos++
		items, err := p.list(']')
		if err != nil {
			return nil, err
		}
		return &Seq{Items: items}, nil
	case '#':
		return p.term()
	case '*':
		p.pos++
		return &Capture{}, nil
	case '"':
		return p.quoted()
	default:
		if strings.IndexByte(delimiters, c) >= 0 {
			return nil, p.errorf("unexpected %q", c)
		}
		return p.words()
	}
}

func (p *parser) list(closing byte) ([]Pattern, error) {
	var items []Pattern
	for {
		p.skipSpace()
		if !p.eof() && p.peek() == closing && len(items) == 0 {
			return nil, p.errorf("empty group")
		}
		it, err := p.item()
		if err != nil {
			return nil, err
		}
		items = append(items, it)
		p.skipSpace()
		if p.eof() {
			return nil, p.errorf("unterminated group, expected %q", closing)
		}
		switch p.peek() {
		case ',':
			p.pos++
		case closing:
			p.pos++
			return items, nil
		default:
			return nil, p.errorf("expected ',' or %q, got %q", closing, p.peek())
		}
	}
}

func (p *parser) ident() string {
	start := p.pos
	for !p.eof() {
		r := rune(p.peek())
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *parser) assign() (Pattern, error) {
	p.pos++ // $
	name := p.ident()
	if name == "" {
		return nil, p.errorf("missing variable name")
	}
	if err := p.expect('='); err != nil {
		return nil, err
	}
	child, err := p.item()
	if err != nil {
		return nil, err
	}
	return &Assign{Var: name, Child: child}, nil
}

func (p *parser) term() (Pattern, error) {
	p.pos++ // #
	name := p.ident()
	if name != "ONT" {
		return nil, p.errorf("unknown pattern function #%s", name)
	}
	if err := p.expect('('); err != nil {
		return nil, err
	}
	end := strings.IndexByte(p.src[p.pos:], ')')
	if end < 0 {
		return nil, p.errorf("unterminated #ONT(")
	}
	term := ontology.Normalize(p.src[p.pos : p.pos+end])
	if term == "" {
		return nil, p.errorf("empty ontology term")
	}
	p.pos += end + 1
	return &Term{Name: term}, nil
}

func (p *parser) quoted() (Pattern, error) {
	p.pos++ // opening quote
	end := strings.IndexByte(p.src[p.pos:], '"')
	if end < 0 {
		return nil, p.errorf("unterminated quote")
	}
	phrase := p.src[p.pos : p.pos+end]
	p.pos += end + 1
	return p.literal(phrase)
}

func (p *parser) words() (Pattern, error) {
	start := p.pos
	for !p.eof() && strings.IndexByte(delimiters, p.peek()) < 0 {
		p.pos++
	}
	return p.literal(p.src[start:p.pos])
}

func (p *parser) literal(phrase string) (Pattern, error) {
	if len(ontology.Tokenize(phrase)) == 0 {
		return nil, p.errorf("literal %q has no words", phrase)
	}
	return NewLiteral(phrase), nil
}
