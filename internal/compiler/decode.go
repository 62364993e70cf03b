package compiler

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/stubgen/internal/ir"
)

// DecodeManifests reads every YAML document from r as a package manifest.
//
// JSON is accepted as well since it is a YAML subset. Unknown fields are
// rejected so that typos such as "mainModule:" surface immediately. Files
// and records keep their document order.
func DecodeManifests(r io.Reader) ([]ir.PackageManifest, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var manifests []ir.PackageManifest
	for i := 0; ; i++ {
		var m ir.PackageManifest
		err := decoder.Decode(&m)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode manifest document %d: %w", i, err)
		}
		if m.Files == nil {
			m.Files = []ir.FileExports{}
		}
		manifests = append(manifests, m)
	}

	return manifests, nil
}
