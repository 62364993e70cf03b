package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/stubgen/internal/compiler"
	"github.com/roach88/stubgen/internal/ir"
)

// LoadMode controls how errors are handled during manifest loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the manifests loaded from a directory.
type LoadResult struct {
	Manifests []ir.PackageManifest
	Sources   []string // Source file of each manifest, parallel to Manifests
	FileCount int      // Number of manifest files found
}

// LoadError represents an error that occurred during manifest loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// manifestExts are the file extensions LoadManifests picks up.
var manifestExts = map[string]bool{
	".cue":  true,
	".yaml": true,
	".yml":  true,
	".json": true,
}

// LoadManifests loads package manifests from the top level of dir.
//
// All .cue files form one CUE instance whose `packages` struct holds one
// entry per package. Every .yaml, .yml and .json file holds one or more
// manifest documents. CUE manifests come first, then data files in name
// order.
//
// If mode is LoadModeFailFast, returns on first error.
// If mode is LoadModeCollectAll, collects all errors.
func LoadManifests(dir string, mode LoadMode) (*LoadResult, []error) {
	var errs []error

	// Verify directory exists
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("manifest directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing manifest directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	files, err := FindManifestFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no manifest files found in %s", dir)}}
	}

	result := &LoadResult{FileCount: len(files)}

	var dataFiles []string
	hasCUE := false
	for _, f := range files {
		if filepath.Ext(f) == ".cue" {
			hasCUE = true
			continue
		}
		dataFiles = append(dataFiles, f)
	}

	if hasCUE {
		manifests, sources, cueErrs, fatal := loadCUEManifests(dir, mode)
		if fatal != nil {
			return nil, []error{fatal}
		}
		result.Manifests = append(result.Manifests, manifests...)
		result.Sources = append(result.Sources, sources...)
		errs = append(errs, cueErrs...)
		if len(errs) > 0 && mode == LoadModeFailFast {
			return result, errs
		}
	}

	for _, path := range dataFiles {
		manifests, err := decodeManifestFile(path)
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeDecodeFailed, Message: fmt.Sprintf("%s: %v", filepath.Base(path), err)})
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		for range manifests {
			result.Sources = append(result.Sources, path)
		}
		result.Manifests = append(result.Manifests, manifests...)
	}

	// Package ids key the output directory and the history store
	seen := make(map[string]string, len(result.Manifests))
	for i, m := range result.Manifests {
		if m.PackageID == "" {
			continue
		}
		if first, ok := seen[m.PackageID]; ok {
			errs = append(errs, &LoadError{
				Code:    ErrCodeDuplicatePackage,
				Message: fmt.Sprintf("package %q declared in %s and %s", m.PackageID, filepath.Base(first), filepath.Base(result.Sources[i])),
			})
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		seen[m.PackageID] = result.Sources[i]
	}

	// Check if we found anything
	if len(result.Manifests) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no package manifests found"})
	}

	return result, errs
}

// loadCUEManifests builds the CUE instance in dir and compiles each entry of
// its `packages` struct. A non-nil fatal error means nothing could be loaded.
func loadCUEManifests(dir string, mode LoadMode) ([]ir.PackageManifest, []string, []error, error) {
	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, nil, nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}

	// Check for load errors
	inst := instances[0]
	if inst.Err != nil {
		return nil, nil, nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	// Build value from instance
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, nil, nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	packagesVal := value.LookupPath(cue.ParsePath("packages"))
	if !packagesVal.Exists() {
		return nil, nil, nil, nil
	}

	iter, err := packagesVal.Fields()
	if err != nil {
		return nil, nil, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating packages: %v", err)}}, nil
	}

	var (
		manifests []ir.PackageManifest
		sources   []string
		errs      []error
	)
	for iter.Next() {
		m, compileErr := compiler.CompilePackage(iter.Value())
		if compileErr != nil {
			errs = append(errs, convertCompileError(compileErr, "packages."+iter.Selector().String()))
			if mode == LoadModeFailFast {
				return manifests, sources, errs, nil
			}
			continue
		}
		manifests = append(manifests, *m)
		sources = append(sources, cueSource(iter.Value(), dir))
	}
	return manifests, sources, errs, nil
}

// cueSource returns the file a CUE package entry was declared in.
func cueSource(v cue.Value, dir string) string {
	if pos := v.Pos(); pos.IsValid() && pos.Filename() != "" {
		return pos.Filename()
	}
	return dir
}

// decodeManifestFile decodes every manifest document in a YAML or JSON file.
func decodeManifestFile(path string) ([]ir.PackageManifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return compiler.DecodeManifests(f)
}

// FindManifestFiles returns the manifest files at the top level of dir,
// sorted by name. Subdirectories are not descended into.
func FindManifestFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !manifestExts[filepath.Ext(entry.Name())] {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeDecodeFailed,
			Message: fmt.Sprintf("%s: %s", context, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric          = "E001" // Generic/unknown error
	ErrCodeScanError        = "E002" // Directory scan error
	ErrCodeNoFiles          = "E003" // No manifest files found
	ErrCodeLoadFailed       = "E004" // CUE load failed
	ErrCodeNotFound         = "E005" // Path not found
	ErrCodeBuildFailed      = "E006" // CUE build failed
	ErrCodeWriteFailed      = "E007" // File write error
	ErrCodeDecodeFailed     = "E008" // Manifest decode or compile error
	ErrCodeDuplicatePackage = "E009" // Package id declared twice
	ErrCodeGraph            = "E010" // Package graph construction failed
	ErrCodeSerialization    = "E011" // Record could not be serialized
	ErrCodeSurface          = "E012" // Main stub misses a public export
	ErrCodeStore            = "E013" // History store error
	ErrCodeConfig           = "E014" // Configuration error
)
