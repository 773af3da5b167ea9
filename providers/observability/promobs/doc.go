// Package promobs provides an observability.Provider whose counters and
// histograms are Prometheus collectors. Tracing and logging are delegated to an
// inner provider, typically a slogobs.Observer.
//
// Instruments are created lazily on first use. Their label set is fixed by the
// attribute keys of that first observation; later observations fill missing
// labels with an empty value and drop unknown ones, matching how Prometheus
// requires a stable label schema per metric.
package promobs
