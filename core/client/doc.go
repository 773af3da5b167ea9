// Package client sits between a raw LLM provider and the higher-level agent
// patterns. It owns the conversation memory, the tool catalog and a send
// middleware chain inside a single immutable Client value.
//
// The entry point is [New], which accepts an [ai.Provider] and functional
// options such as [WithMemory], [WithTools] and [WithSystemPrompt]. Retry,
// timeout and logging middlewares live in the middleware subpackage.
package client
