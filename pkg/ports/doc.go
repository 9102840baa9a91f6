/*
Package ports defines the driven ports (interfaces) of the weft session layer.

These interfaces decouple thread sessions from external implementations, allowing
transcripts to live in memory, on disk, in Redis or in BoltDB, and prompt documents
to come from any source.

# Key Interfaces

  - TranscriptStore: persists the text-only history of each thread.
  - DistributedLocker: serialises renders of a thread across replicas.
  - DocumentSource: lists and reads raw prompt documents (e.g., from Loam or memory).
  - Engine: the conversation surface used by the HTTP and MCP adapters.
*/
package ports
