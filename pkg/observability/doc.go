/*
Package observability provides tools for monitoring weft sessions.

Metrics registers Prometheus collectors and exposes them as domain.LifecycleHooks,
so they can be attached to a session.Manager with session.WithHooks. LogHooks does
the same for structured logging.
*/
package observability
