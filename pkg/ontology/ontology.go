// Package ontology resolves symbolic terms (e.g. "nintendo") to the surface
// forms a user may type ("switch", "wii", "game boy", ...).
//
// An ontology is loaded once from a static definition and is read-only
// afterwards, so a single instance can be shared by every session.
package ontology

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// BrandsKey is the reserved top-level list enumerating the top-level categories.
const BrandsKey = "brands"

// Definition is the on-disk shape of an ontology.
// JSON is accepted as well since it is a subset of YAML.
type Definition struct {
	Ontology map[string][]string `json:"ontology" yaml:"ontology"`
	Brands   []string            `json:"brands,omitempty" yaml:"brands,omitempty"`
}

// Ontology maps canonical terms to their surface forms.
type Ontology struct {
	children map[string][]string
	brands   []string

	// expanded caches the transitive closure of every term.
	expanded map[string][]string
	// owner maps a surface form to the most specific term listing it.
	owner map[string]string
}

// New builds an ontology from a definition.
// Terms and surface forms are normalized to lower case.
func New(def Definition) (*Ontology, error) {
	o := &Ontology{
		children: make(map[string][]string, len(def.Ontology)),
		expanded: make(map[string][]string, len(def.Ontology)),
		owner:    make(map[string]string),
	}

	for term, surfaces := range def.Ontology {
		key := Normalize(term)
		if key == "" {
			return nil, fmt.Errorf("ontology: empty term")
		}
		if key == BrandsKey {
			return nil, fmt.Errorf("ontology: %q is reserved", BrandsKey)
		}
		for _, s := range surfaces {
			if n := Normalize(s); n != "" {
				o.children[key] = append(o.children[key], n)
			}
		}
		if _, ok := o.children[key]; !ok {
			o.children[key] = nil
		}
	}

	for _, b := range def.Brands {
		key := Normalize(b)
		if _, ok := o.children[key]; !ok {
			return nil, fmt.Errorf("ontology: brand %q is not a defined term", b)
		}
		o.brands = append(o.brands, key)
	}

	for term := range o.children {
		o.expanded[term] = o.expand(term)
	}
	o.indexOwners()

	return o, nil
}

// Load reads an ontology definition from a JSON or YAML file.
func Load(path string) (*Ontology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ontology: %w", err)
	}
	return Parse(data)
}

// Parse decodes an ontology definition from JSON or YAML bytes.
func Parse(data []byte) (*Ontology, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse ontology: %w", err)
	}
	if len(def.Ontology) == 0 {
		return nil, fmt.Errorf("ontology: definition has no terms")
	}
	return New(def)
}

// expand collects the surface forms of term, following children that are
// themselves terms. Cycles are cut at the first revisit.
func (o *Ontology) expand(term string) []string {
	seen := map[string]bool{}
	out := map[string]bool{}

	var walk func(t string)
	walk = func(t string) {
		if seen[t] {
			return
		}
		seen[t] = true
		out[t] = true
		for _, child := range o.children[t] {
			if _, isTerm := o.children[child]; isTerm {
				walk(child)
				continue
			}
			out[child] = true
		}
	}
	walk(term)

	forms := make([]string, 0, len(out))
	for f := range out {
		forms = append(forms, f)
	}
	sort.Strings(forms)
	return forms
}

// indexOwners records, for each surface form, the term with the smallest
// expansion that contains it. Ties go to the alphabetically first term.
func (o *Ontology) indexOwners() {
	terms := o.Terms()
	for _, term := range terms {
		for _, form := range o.expanded[term] {
			current, ok := o.owner[form]
			if !ok || len(o.expanded[term]) < len(o.expanded[current]) {
				o.owner[form] = term
			}
		}
	}
}

// Has reports whether term is defined.
func (o *Ontology) Has(term string) bool {
	_, ok := o.children[Normalize(term)]
	return ok
}

// Terms returns every defined term in sorted order.
func (o *Ontology) Terms() []string {
	terms := make([]string, 0, len(o.children))
	for t := range o.children {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}

// Brands returns the reserved list of top-level categories.
func (o *Ontology) Brands() []string {
	return append([]string(nil), o.brands...)
}

// Expand returns the surface forms registered under term, including the term
// itself. Unknown terms expand to nothing.
func (o *Ontology) Expand(term string) []string {
	return append([]string(nil), o.expanded[Normalize(term)]...)
}

// Resolve returns term if any of its surface forms occurs in utterance.
// Matching is token-level and case-insensitive.
func (o *Ontology) Resolve(utterance, term string) (string, bool) {
	key := Normalize(term)
	forms, ok := o.expanded[key]
	if !ok {
		return "", false
	}
	tokens := Tokenize(utterance)
	for _, form := range forms {
		if IndexPhrase(tokens, Tokenize(form), 0) >= 0 {
			return key, true
		}
	}
	return "", false
}

// Canonical returns the most specific term that lists surface.
func (o *Ontology) Canonical(surface string) (string, bool) {
	term, ok := o.owner[Normalize(surface)]
	return term, ok
}

// Normalize lower-cases s and collapses it to single-space separated tokens.
func Normalize(s string) string {
	return strings.Join(Tokenize(s), " ")
}
