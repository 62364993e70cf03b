package exports

import (
	"fmt"

	"github.com/roach88/stubgen/internal/ir"
)

// Serialize renders e as a single static module statement.
//
// namespace is the opaque token naming the runtime object that holds the
// package's live exports; it is inserted verbatim.
//
// Records whose type cannot be rendered (global bindings, unknown types)
// yield a *SerializationError. Callers filter PlacementNone records first,
// so for well-formed input this only fires on unknown types.
func (e Export) Serialize(namespace string) (string, error) {
	switch e.typ {
	case ir.ExportReExport:
		path, _ := e.ExportPath()
		if e.IsWildcard() && e.as == "" {
			return fmt.Sprintf("export * from '%s';", path), nil
		}
		if e.IsReExportedByParent() {
			binding := e.bindingName()
			return fmt.Sprintf("export const %s = %s.%s;", binding, namespace, binding), nil
		}
		if e.as != "" {
			return fmt.Sprintf("export { %s as %s } from '%s';", e.name, e.as, path), nil
		}
		return fmt.Sprintf("export { %s } from '%s';", e.name, path), nil

	case ir.ExportDefault:
		return serializeDefault(namespace), nil

	case ir.ExportNamed:
		if e.name == "default" {
			return serializeDefault(namespace), nil
		}
		return fmt.Sprintf("export const %s = %s.%s;", e.name, namespace, e.name), nil

	case ir.ExportGlobalBinding:
		return "", newSerializationError("global bindings have no module statement", e)

	default:
		return "", newSerializationError("tried to format a non-supported module export", e)
	}
}

// serializeDefault tolerates packages that expose a single default-like value
// directly on the namespace object rather than under a .default property.
func serializeDefault(namespace string) string {
	return fmt.Sprintf("export default %s.default ?? %s;", namespace, namespace)
}

// bindingName is the identifier a sibling re-export is redirected through.
// A named re-export without an alias binds its own name.
func (e Export) bindingName() string {
	if key, ok := e.Key(); ok {
		return key
	}
	return e.name
}

// SerializationError reports a record that reached the emission boundary
// with a type the serializer does not render.
type SerializationError struct {
	Message string
	Export  Export
}

func newSerializationError(message string, e Export) *SerializationError {
	return &SerializationError{Message: message, Export: e}
}

// Error implements the error interface.
func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialize export: %s: %s", e.Message, e.Export)
}
