/*
Package domain contains the core domain models for the fabula engine.

It defines the fundamental entities of a branching narrative, such as the
Story graph, the player State, Requirements (declarative conditions) and the
chapter/flow branching structures. This package is kept pure and free of
external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - Story: The immutable graph of Nodes and Choices, validated at load time.
  - State: The runtime snapshot of a playthrough (Current Node, Flags, History).
  - Requirement: A declarative condition gating a Choice or BranchOption.
  - Chapter/Flow/BranchPoint: The multi-flow branching layer above the graph.
  - Checkpoint: A labeled snapshot captured by the autosave subsystem.
*/
package domain
