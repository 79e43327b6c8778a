/*
Package ports defines the driven ports (interfaces) for the Fabula engine.

These interfaces decouple the narrative core from external implementations,
allowing the engine to work with various save backends and story sources.

# Key Interfaces

  - StorageAdapter: persists and retrieves serialized save envelopes by key.
  - StoryLoader: loads a story graph from a backing source (file, directory, memory).
  - DistributedLocker: coordinates save-key access across multiple instances.
*/
package ports
