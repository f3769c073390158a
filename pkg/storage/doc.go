// Package storage provides utilities shared across run-history backends,
// including sentinel errors and tenant context helpers.
//
// Backends (memory, postgres) implement the transport.RunStore interface
// defined in pkg/transport/handler.go. Only run metadata is stored; the
// generated summary and post text never reach a backend.
package storage
