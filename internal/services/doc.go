// Package services sits between the transports (HTTP, CLI) and the
// pipeline.
//
// CorpusService owns the exports directory: it lists export files, builds
// the Film and TV master tables through the dataprocessing pipeline, caches
// the result by a fingerprint of the directory listing, and accepts
// uploads. Concurrent readers that miss the cache share a single rebuild.
//
// HealthService reports liveness, readiness and a few runtime counters.
package services
