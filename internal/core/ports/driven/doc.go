// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingProvider: Remote embedding generation. Chunking and
//     embedding resolution need it.
//   - SettingsStore: Application configuration persistence.
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingCache: Vector caching. Without it (or when it fails),
//     every lookup behaves as a miss; the cache is an optimisation,
//     never a correctness dependency.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
