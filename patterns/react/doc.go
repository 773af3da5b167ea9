// Package react implements the ReAct (reason + act) loop on top of the core
// client. The model alternates between answering and requesting tools; each
// requested tool runs and its result goes back into memory until the model
// produces a final answer, which is parsed into a caller-chosen type T.
//
// Use [New] to wrap a configured [client.Client], then [ReAct.Execute]. Tune
// with [WithMaxIterations] and [WithStopOnError].
package react
