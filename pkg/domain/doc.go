/*
Package domain contains the core domain models of the Turing machine engine.

It defines the vocabulary shared by the parser, the execution engine and the
playback controller. This package is kept pure and free of external
dependencies like I/O or persistence.

# Key Entities

  - Symbol: a single tape cell. Blank ('_') and Wildcard ('*') are reserved.
  - Rule: maps (state, read pattern) to (state, write pattern, direction).
  - Table: the transition function, with a literal tier and a per-state wildcard fallback.
  - Snapshot: the observable form of one configuration (state, tape, head).
  - Trace: the ordered, immutable record of snapshots produced by one run.
  - Session: a persisted run plus the playback cursor of whoever is reviewing it.
*/
package domain
