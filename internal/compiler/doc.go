// Package compiler turns package manifests into validated ir values.
//
// Manifests arrive either as CUE, compiled through the CUE Go API, or as
// YAML/JSON documents decoded with yaml.v3. Both paths produce
// ir.PackageManifest; ValidateManifest then checks the invariants graph
// construction relies on and reports every violation at once.
package compiler
