// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentSource: Reads the research document and appends to sections
//   - EmbeddingService: Generates vector embeddings for chunks and queries
//   - VectorStore: Persists chunk vectors (memory, SQLite or Qdrant)
//   - PendingEditStore: Persists staged edits awaiting confirmation
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Answer generation and gap narratives. Without it, queries
//     return retrieved sections only.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
