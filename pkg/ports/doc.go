/*
Package ports defines the driven ports (interfaces) of the Turing machine engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various storage backends and transports.

# Key Interfaces

  - Simulator: parses rule text and executes runs (implemented by turing.Engine).
  - StateStore: persists the current run and playback cursor of a session.
  - DistributedLocker: provides distributed locking for concurrent session access.
*/
package ports
