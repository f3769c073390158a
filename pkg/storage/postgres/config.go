package postgres

import "time"

// Config holds connection pool settings for the run history database.
type Config struct {
	// DSN is a libpq-style or URL connection string,
	// e.g. "postgres://postsmith:secret@db:5432/postsmith?sslmode=require".
	DSN string

	MaxConns int32 // default 10
	MinConns int32 // default 1

	// MaxConnLifetime bounds how long a pooled connection is reused (default 30m).
	MaxConnLifetime time.Duration

	// MigrateOnStart applies embedded schema migrations in New.
	MigrateOnStart bool
}

func (c *Config) defaults() {
	if c.MaxConns == 0 {
		c.MaxConns = 10
	}
	if c.MinConns == 0 {
		c.MinConns = 1
	}
	if c.MinConns > c.MaxConns {
		c.MinConns = c.MaxConns
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = 30 * time.Minute
	}
}
