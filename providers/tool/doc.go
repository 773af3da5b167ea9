// Package tool turns typed Go functions into tools an LLM can call.
//
// [NewTool] derives the parameter schema from the input type, and
// [Tool.Call] decodes the model's (possibly malformed) JSON arguments,
// validates them against `validate` struct tags and runs the function.
// [Catalog] is a concurrency-safe, case-insensitive registry of tools.
package tool
