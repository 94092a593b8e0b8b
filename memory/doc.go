// Package memory implements the three conversation/knowledge tiers of the
// runtime:
//
//   - short-term: a token-budgeted in-process window of recent turns for the
//     active session, evicted oldest-first
//   - session: an append-only durable turn log used for session resume
//     (in-memory here, Redis in memory/redisstore)
//   - long-term: a semantic store that chunks documents, embeds them through
//     an external provider and serves top-k similarity search
//
// All tiers share the core.Turn data model and are safe for concurrent
// readers; long-term writes are serialized per store.
package memory
