// Package jsonschema derives JSON Schema documents from Go types.
//
// Schemas are produced by github.com/invopop/jsonschema with references
// inlined, so a tool's input type becomes a single self-contained object
// schema suitable for function-calling APIs. Field descriptions and
// requirements come from `json` and `jsonschema` struct tags.
package jsonschema
