// Package ir provides the input records consumed by the stub generator.
//
// This package contains type definitions and canonical hashing only. All
// other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Records are plain data; classification lives in package exports
//   - Manifest JSON tags follow the external parser contract (camelCase)
//   - Hashes are computed over RFC 8785 canonical JSON, never json.Marshal
package ir
