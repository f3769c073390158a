// Package api defines the core types shared by every postsmith component.
//
// A post is produced by a linear pipeline: the topic is searched, the
// search results are summarized by a language model, and the summary is
// rewritten into a social-media post by a second model call. This package
// holds the data that flows between those stages, the error taxonomy used
// to classify failures, the pipeline state machine and ID generation.
//
// The package has zero external dependencies (Go standard library only) and
// performs no I/O.
//
// Core types:
//   - [SearchResult]: one normalized organic search hit (title, snippet)
//   - [GenerateRequest]: client request for a post
//   - [Post]: the outcome of one pipeline run
//   - [StreamEvent]: server-sent progress event for streaming runs
//   - [APIError]: classified error with type, message and upstream details
package api
