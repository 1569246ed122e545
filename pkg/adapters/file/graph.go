// Package file reads conversation graphs from YAML or JSON files and keeps
// sessions as JSON files on disk.
package file

import (
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/arcade/pkg/domain"
	"github.com/aretw0/arcade/pkg/dsl"
)

// Definition is the on-disk shape of a graph.
//
//	start: START
//	states:
//	  - id: START
//	    say: Hi, do you play video games?
//	    to: ASK
//	  - id: ASK
//	    listen:
//	      - pattern: "{yes, yeah}"
//	        to: END
//	    error: START
//	  - id: END
type Definition struct {
	Start  string            `mapstructure:"start" yaml:"start"`
	States []StateDefinition `mapstructure:"states" yaml:"states"`
}

// StateDefinition describes one state. A state either says something (system)
// or listens (user).
type StateDefinition struct {
	ID      string             `mapstructure:"id" yaml:"id"`
	Speaker string             `mapstructure:"speaker" yaml:"speaker,omitempty"`
	Say     string             `mapstructure:"say" yaml:"say,omitempty"`
	To      string             `mapstructure:"to" yaml:"to,omitempty"`
	Listen  []ListenDefinition `mapstructure:"listen" yaml:"listen,omitempty"`
	Error   string             `mapstructure:"error" yaml:"error,omitempty"`
}

// ListenDefinition is one user transition.
type ListenDefinition struct {
	Pattern string `mapstructure:"pattern" yaml:"pattern"`
	To      string `mapstructure:"to" yaml:"to"`
}

// LoadGraph reads a graph definition from a YAML or JSON file.
func LoadGraph(path string) (*domain.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph: %w", err)
	}
	g, err := ParseGraph(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// ParseGraph decodes a graph definition. Unknown keys are rejected so that
// typos do not silently drop transitions.
func ParseGraph(data []byte) (*domain.Graph, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse graph: %w", err)
	}

	var def Definition
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &def,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}
	return def.Build()
}

// Build turns the definition into a graph. Structural checks beyond the
// shape of each state happen when an engine compiles the graph.
func (d Definition) Build() (*domain.Graph, error) {
	if len(d.States) == 0 {
		return nil, fmt.Errorf("graph has no states")
	}
	start := d.Start
	if start == "" {
		start = d.States[0].ID
	}

	b := dsl.New(domain.StateID(start))
	seen := make(map[string]bool, len(d.States))
	for i, s := range d.States {
		if s.ID == "" {
			return nil, fmt.Errorf("state %d: missing id", i)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("state %s: defined twice", s.ID)
		}
		seen[s.ID] = true

		if s.Say != "" && len(s.Listen) > 0 {
			return nil, fmt.Errorf("state %s: cannot both say and listen", s.ID)
		}
		if s.Say != "" && s.To == "" {
			return nil, fmt.Errorf("state %s: say without a target", s.ID)
		}

		sb := b.State(domain.StateID(s.ID))
		switch domain.Speaker(s.Speaker) {
		case "":
		case domain.SpeakerSystem:
			sb.System()
		case domain.SpeakerUser:
			sb.User()
		default:
			return nil, fmt.Errorf("state %s: unknown speaker %q", s.ID, s.Speaker)
		}
		if s.Say != "" {
			sb.Say(s.Say, domain.StateID(s.To))
		}
		for _, l := range s.Listen {
			sb.Listen(l.Pattern, domain.StateID(l.To))
		}
		if s.Error != "" {
			sb.Error(domain.StateID(s.Error))
		}
	}
	return b.Build()
}

// Describe converts a graph back into its definition, in graph order.
func Describe(g *domain.Graph) Definition {
	def := Definition{Start: string(g.Start)}
	for _, n := range g.List() {
		s := StateDefinition{ID: string(n.ID), Error: string(n.ErrorSuccessor)}
		if len(n.Transitions) == 0 && n.Speaker == domain.SpeakerUser {
			s.Speaker = string(n.Speaker)
		}
		for _, t := range n.Transitions {
			if t.Speaker == domain.SpeakerSystem {
				s.Say, s.To = t.Template, string(t.To)
				continue
			}
			s.Listen = append(s.Listen, ListenDefinition{Pattern: t.Pattern, To: string(t.To)})
		}
		def.States = append(def.States, s)
	}
	return def
}

// MarshalGraph renders a graph as YAML.
func MarshalGraph(g *domain.Graph) ([]byte, error) {
	return yaml.Marshal(Describe(g))
}
