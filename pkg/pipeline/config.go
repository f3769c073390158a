package pipeline

import (
	"time"

	"github.com/rhuss/postsmith/pkg/api"
)

// DefaultMaxResults is the number of search results fed into the summary
// prompt when no limit is configured.
const DefaultMaxResults = 7

// Config holds pipeline settings fixed at startup.
type Config struct {
	// MaxResults bounds the search result list. Zero or negative means
	// DefaultMaxResults.
	MaxResults int

	// StoreTimeout bounds how long recording a run may take after the run
	// itself finished (default 5s).
	StoreTimeout time.Duration

	// Validation limits applied to requests arriving through Generate.
	Validation api.ValidationConfig
}

func (c Config) maxResults() int {
	if c.MaxResults <= 0 {
		return DefaultMaxResults
	}
	return c.MaxResults
}

func (c Config) storeTimeout() time.Duration {
	if c.StoreTimeout <= 0 {
		return 5 * time.Second
	}
	return c.StoreTimeout
}
