/*
Package observability turns engine lifecycle hooks into logs and Prometheus metrics.

Metrics registers its collectors on a caller-supplied registry and exposes
domain.LifecycleHooks that count steps, runs by outcome, run durations and
rejected rule texts. Compose merges several hook sets so logging and metrics
can be attached to the same engine.
*/
package observability
