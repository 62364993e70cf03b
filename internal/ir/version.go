package ir

// Version constants for the manifest schema and stub engine.
const (
	// ManifestVersion is the package manifest schema version.
	ManifestVersion = "1"

	// EngineVersion is the stub engine version recorded with every run.
	EngineVersion = "0.1.0"
)
