// Package tools holds the static tool catalogue and the dispatch pipeline.
//
// A tool is a named, schema-described unit of functionality exposed to
// external agent callers. Definitions carry typed parameter descriptors
// (ParamSpec) instead of raw JSON schemas: the validator structurally
// matches decoded arguments against the descriptors, and tools/list renders
// the descriptors back into JSON-Schema-shaped objects for clients.
//
// The Registry is populated during startup wiring and is read-only
// afterwards. The Router executes a call end to end: registry lookup,
// scope enforcement, argument validation, default filling, handler
// invocation, and normalization of every failure into a typed protocol
// error. Handlers perform their own record-level authorization; the Router
// only guarantees that the invocation context is tenant-scoped.
package tools
