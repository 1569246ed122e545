package domain

// Transition defines a directed edge from one state to another.
type Transition struct {
	From    StateID `json:"from" yaml:"from"`
	To      StateID `json:"to" yaml:"to"`
	Speaker Speaker `json:"speaker" yaml:"speaker"`

	// Template is the utterance rendered by a system transition.
	// It may contain $variable and #MACRO(args) references.
	Template string `json:"template,omitempty" yaml:"template,omitempty"`

	// Pattern is the matcher source evaluated against the user utterance.
	// e.g. "{yes, yeah}" or "$device=#ONT(playstation)"
	Pattern string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
}
