// Package overview tracks what happened during one execution: token usage,
// tool call and tool error counts, and the full request/response history.
// Use [OverviewFromContext] to obtain or create the instance bound to a
// [context.Context].
package overview
