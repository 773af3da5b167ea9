// Package memory defines [Provider], the conversation history store used by
// the client. Read methods return errors so that persistent implementations
// can report failures; the bundled implementation lives in
// [github.com/leofalp/researchagent/providers/memory/inmemory].
package memory
