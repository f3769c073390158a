// Package openaicompat implements provider.Completer against any
// OpenAI-compatible Chat Completions endpoint (GroqCloud, vLLM, LiteLLM,
// OpenAI). It handles request serialization, response extraction, token
// accounting and error mapping.
package openaicompat
