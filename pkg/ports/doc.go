/*
Package ports defines the driven ports (interfaces) for the Foundry engine.

These interfaces decouple the interpreter from external implementations, allowing
alignments to come from various sources and run records to be kept in various stores.

# Key Interfaces

  - AlignmentLoader: Responsible for loading raw Alignment documents (e.g., from Loam or Memory).
  - RunStore: Responsible for persisting and loading RunRecords.
  - DistributedLocker: Provides distributed locking for runs submitted with the same ID.
  - Engine: The surface exposed by the root package to transport adapters (HTTP, MCP).
*/
package ports
