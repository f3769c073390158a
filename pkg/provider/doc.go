// Package provider defines the interface for language-model backends.
// The pipeline only ever sends a single user prompt and reads back a single
// block of text, so the interface is deliberately narrow; protocol details
// live in the adapter packages (see openaicompat).
package provider
