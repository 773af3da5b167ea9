// Package inmemory provides a mutex-guarded, slice-backed [memory.Provider].
// An optional window keeps long interactive sessions from growing without
// bound; trimming always restarts the history at a user turn so tool results
// are never separated from the assistant message that requested them.
package inmemory
