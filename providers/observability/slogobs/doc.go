// Package slogobs provides an observability.Provider backed by log/slog.
// Spans are emitted as debug records, counters and histograms are kept in
// memory and logged at debug level, and log calls map onto slog levels.
// Output format and level default to the LOG_FORMAT and LOG_LEVEL environment
// variables; use [WithFormat], [WithLevel], [WithOutput] or [WithLogger] to
// override them.
package slogobs
