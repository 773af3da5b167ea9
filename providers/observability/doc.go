// Package observability defines the tracing, metrics and logging interfaces
// shared by the research agent components, plus the semantic conventions used
// when recording observations.
//
// [Provider] composes [Tracer], [Metrics] and [Logger]. A span and an observer
// travel through a [context.Context] via [ContextWithSpan] and
// [ContextWithObserver]. Concrete observers live in the slogobs and promobs
// subpackages.
package observability
