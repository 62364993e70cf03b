// Package exports classifies export records and serializes them as static
// module statements.
//
// An Export is immutable. Every derived property (placement, stub type, key,
// export path) is a pure function of the record's own fields and its owner
// handle, so records can be classified and serialized concurrently without
// coordination.
//
// Classification is total: an unrecognized export type degrades to a fallback
// stub type and a bottom placement. Serialize is the only operation that
// fails, returning a *SerializationError for types it cannot render.
package exports
