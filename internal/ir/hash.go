package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainManifest = "stubgen/manifest/v1"
	DomainStub     = "stubgen/stub/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ManifestHash computes the content hash of a package manifest.
// Two manifests hash equal iff they describe the same identity, the same
// files in the same order and the same records in the same order.
func ManifestHash(m PackageManifest) (string, error) {
	canonical, err := MarshalCanonical(manifestToMap(m))
	if err != nil {
		return "", fmt.Errorf("ManifestHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainManifest, canonical), nil
}

// MustManifestHash is like ManifestHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustManifestHash(m PackageManifest) string {
	h, err := ManifestHash(m)
	if err != nil {
		panic(err)
	}
	return h
}

// StubHash computes the content hash of an emitted stub.
func StubHash(content string) string {
	return hashWithDomain(DomainStub, []byte(content))
}

// manifestToMap converts a manifest into the map form accepted by MarshalCanonical.
// Optional record fields are omitted when empty so that absent and empty hash alike.
func manifestToMap(m PackageManifest) map[string]any {
	files := make([]any, len(m.Files))
	for i, f := range m.Files {
		records := make([]any, len(f.Exports))
		for j, e := range f.Exports {
			rec := map[string]any{
				"type": string(e.Type),
				"id":   e.ID,
			}
			if e.Name != "" {
				rec["name"] = e.Name
			}
			if e.As != "" {
				rec["as"] = e.As
			}
			if e.From != "" {
				rec["from"] = e.From
			}
			records[j] = rec
		}
		files[i] = map[string]any{
			"path":    f.Path,
			"exports": records,
		}
	}

	return map[string]any{
		"version":        ManifestVersion,
		"name":           m.Name,
		"packageId":      m.PackageID,
		"mainModulePath": m.MainModulePath,
		"files":          files,
	}
}
