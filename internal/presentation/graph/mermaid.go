package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/arcade/pkg/domain"
)

// GraphOverlay contains dynamic session data to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []domain.StateID
	CurrentNode  domain.StateID
}

// OverlayFor builds the overlay of a session.
func OverlayFor(s *domain.Session) *GraphOverlay {
	if s == nil {
		return nil
	}
	return &GraphOverlay{VisitedNodes: s.History, CurrentNode: s.Current}
}

// GenerateMermaid produces a Mermaid flowchart of the conversation graph.
// It applies semantic styling:
//   - Start: ((Circle))
//   - User state: [/Parallelogram/]
//   - Terminal: ([Stadium])
//   - System state: [Rectangle]
//
// User transitions are labelled with their pattern and error successors are
// dotted. Overlay styles (visited/current) are applied if provided.
func GenerateMermaid(g *domain.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range g.List() {
		safeID := sanitizeMermaidID(node.ID)

		opener, closer := "[", "]"
		switch {
		case node.ID == g.Start:
			opener, closer = "((", "))"
		case node.IsTerminal():
			opener, closer = "([", "])"
		case node.Speaker == domain.SpeakerUser:
			opener, closer = "[/", "/]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, node.ID, closer)

		for _, t := range node.Transitions {
			safeTo := sanitizeMermaidID(t.To)
			if t.Speaker == domain.SpeakerUser && t.Pattern != "" {
				fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, escapeLabel(t.Pattern), safeTo)
				continue
			}
			fmt.Fprintf(&sb, "    %s --> %s\n", safeID, safeTo)
		}
		if node.ErrorSuccessor != "" {
			fmt.Fprintf(&sb, "    %s -. error .-> %s\n", safeID, sanitizeMermaidID(node.ErrorSuccessor))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps the highlight readable on light and dark themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if safeID == "" || seen[safeID] {
				continue
			}
			seen[safeID] = true
			fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
		}
		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}
	return sb.String()
}

// escapeLabel keeps a pattern from closing the Mermaid label early.
func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.NewReplacer("#", "#35;", "{", "#123;", "}", "#125;").Replace(s)
}

func sanitizeMermaidID(id domain.StateID) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_").Replace(string(id))
}
