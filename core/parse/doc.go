// Package parse converts raw LLM text into typed Go values.
//
// Models often wrap JSON in markdown fences, emit single-quoted or unquoted
// keys, or echo a schema envelope such as {"type":"string","value":"x"}
// instead of the bare value. [ParseStringAs] strips fences, repairs the JSON
// with github.com/kaptinlin/jsonrepair and unwraps schema envelopes before it
// gives up.
package parse
