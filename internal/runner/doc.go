// Package runner is the inference collaborator sitting between the HTTP
// surface and the scheduler core. It resolves model ids against the
// registry, wraps each request into a queue task, loads and registers
// native resources on cache misses, and streams NDJSON token lines back to
// the caller. The scheduler sequences the tasks; the runner never runs two
// inferences at once because the worker slot is single.
package runner
