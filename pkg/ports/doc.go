/*
Package ports defines the driven ports (interfaces) of the arcade engine.

These interfaces decouple the dialogue core from the storage backends, the
dataset and the transports that drive conversations.

# Key Interfaces

  - Catalog: read-only lookups over the video game sales dataset.
  - SessionStore: persists a conversation's Session between turns.
  - DistributedLocker: serializes access to a session across replicas.
  - Conversation: the engine as seen by adapters (HTTP, MCP, console).
*/
package ports
