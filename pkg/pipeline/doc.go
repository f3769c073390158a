// Package pipeline runs the topic to post workflow: one web search, a
// summarization completion over the results, and a post completion over the
// summary.
//
// The three outbound calls run strictly in sequence on the caller's
// goroutine. Every failure is caught here and reported as a Result in
// the failed state; callers that only want text use Run, which flattens
// the outcome to the post or an "Error: ..." line.
//
// Pipeline also implements transport.Generator so the HTTP and MCP
// surfaces can drive it, and records run metadata when a store is
// configured.
package pipeline
