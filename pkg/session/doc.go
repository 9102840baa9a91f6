/*
Package session keeps the rendered history of conversation threads.

A Manager renders one application tree for any number of named threads. Each
render produces a Turn: the resolved tree, its text and the actions it declares.
Turns are kept in memory because their trees carry live hook state; only their
text is persisted, as a transcript, through a ports.TranscriptStore.

Two strategies choose what a render does:

  - Static renders only the next step, using the latest turn as a "next" reference.
  - Mutable rewinds to an absolute or relative step and re-derives every step up to
    the next one, replaying stored turns as "cached" references.

Renders of the same thread are serialised with reference-counted local locks and,
when configured, a ports.DistributedLocker.
*/
package session
