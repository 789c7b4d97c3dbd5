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
//   - ParentStore: Document and chunk persistence
//   - SparseIndex: Keyword search over parent chunks. Always in-process.
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the pipeline degrades gracefully:
//
//   - VectorIndex: Child-chunk vector storage/search. Only enabled when
//     EmbeddingService is configured.
//   - EmbeddingService: Generates vector embeddings. Without it, the dense
//     retrieval leg is disabled.
//   - RerankService: Cross-encoder pair scoring. Without it, ranking stays
//     in fusion order.
//   - SummarizerService: Conversation summarization. Without it, the
//     short-term window is trimmed without a rolling summary.
//   - MemoryStore: Tiered conversation memory. Without it, every turn runs
//     stateless.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or loader package
package driven
