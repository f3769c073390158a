package storage

import (
	"github.com/rhuss/postsmith/pkg/api"
	"github.com/rhuss/postsmith/pkg/transport"
)

// Page size bounds for list operations.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// EffectiveLimit clamps a requested page size into [1, MaxListLimit],
// using DefaultListLimit for non-positive values.
func EffectiveLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

// NewRunList builds a RunList page, filling the cursor fields. Data is
// never nil so it encodes as an empty JSON array.
func NewRunList(runs []*api.Run, hasMore bool) *transport.RunList {
	if runs == nil {
		runs = []*api.Run{}
	}
	result := &transport.RunList{
		Object:  "list",
		Data:    runs,
		HasMore: hasMore,
	}
	if len(runs) > 0 {
		result.FirstID = runs[0].ID
		result.LastID = runs[len(runs)-1].ID
	}
	return result
}
