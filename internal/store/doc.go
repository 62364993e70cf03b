// Package store provides SQLite-backed durable storage for stub generation history.
//
// Every `stubgen generate` invocation is recorded as a run:
//   - Runs: one row per invocation, with namespace and engine version
//   - Run packages: the packages generated in a run and their manifest hashes
//   - Run stubs: the exact stub text emitted for each file
//
// # Ordering
//
// Runs are ordered by seq INTEGER (a logical counter assigned at write time),
// never by timestamps. Listings that return several rows always add an
// explicit ORDER BY ... COLLATE BINARY so results are identical across
// platforms and SQLite builds.
//
// # Atomicity
//
// A run is written in one transaction. A failed write leaves no trace of
// the run, its packages or its stubs.
package store
