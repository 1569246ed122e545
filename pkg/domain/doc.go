/*
Package domain contains the core domain models of the arcade dialogue engine.

It defines the fundamental entities of the conversation graph, such as States (Nodes),
Transitions and the run-time Session. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Node: A point in the conversation, owned by either the system or the user.
  - Transition: A directed edge carrying a template (system) or a pattern (user).
  - Graph: The static, read-only set of nodes built once at startup.
  - Session: The run-time snapshot of one conversation (current state, variables, turns).
  - Turn: What a single Step produced (rendered lines, whether input is awaited).
*/
package domain
