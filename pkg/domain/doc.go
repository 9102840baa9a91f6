/*
Package domain contains the core domain models shared by the weft packages.

It defines the values that cross package boundaries during a render pass and is kept
free of I/O, following the same hexagonal split as the adapters under pkg/adapters.

# Key Entities

  - ThreadState: the read-only view (thread, step, tool call) passed into one resolution pass.
  - Coordinate: the (step, tool call) pair used to scope render caches.
  - ActionDescriptor: a named capability exposed to the model, with its parameter schema and executor.
  - ActionResult: the outcome of executing an action (continue, redirect or terminate).
  - Transcript: the persisted, text-only record of the turns rendered for one thread.
*/
package domain
