// Package stub assembles static module stubs from a package graph.
//
// For every file, records are serialized in two groups: top placements
// (re-exports linked before the namespace object exists) followed by bottom
// placements (reads from the namespace object). Records with no placement
// are dropped. Within a group declaration order is kept.
//
// Assembly is pure. Generator adds bounded parallelism across packages and
// memoizes results by manifest hash; a failure in any file fails the whole
// package, and no partial output is returned.
package stub
