// Package ratelimit provides [Gate], a context-aware token bucket shared by
// every caller that talks to the same upstream quota.
//
// The search API used by the research agent allows one request per second per
// key, so [Shared] returns a process-wide gate with exactly that budget. All
// search clients that are not given their own gate queue on it in FIFO order.
package ratelimit
