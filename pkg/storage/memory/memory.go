// Package memory keeps run history in process memory. It serves tests and
// single-instance deployments; everything is lost on restart. A size bound
// evicts the oldest runs first.
package memory

import (
	"cmp"
	"context"
	"math"
	"slices"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/rhuss/postsmith/pkg/api"
	"github.com/rhuss/postsmith/pkg/storage"
	"github.com/rhuss/postsmith/pkg/transport"
)

// Store is a bounded, tenant-aware RunStore.
type Store struct {
	mu   sync.RWMutex
	runs *simplelru.LRU[string, api.Run]
}

var _ transport.RunStore = (*Store)(nil)

// New returns a store holding at most maxSize runs. 0 means unbounded.
func New(maxSize int) *Store {
	if maxSize <= 0 {
		maxSize = math.MaxInt32
	}
	runs, err := simplelru.NewLRU[string, api.Run](maxSize, nil)
	if err != nil {
		// Only a non-positive size fails.
		panic(err)
	}
	return &Store{runs: runs}
}

// SaveRun stores a copy of run, owned by the context tenant unless the run
// names one.
func (s *Store) SaveRun(ctx context.Context, run *api.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runs.Contains(run.ID) {
		return storage.ErrConflict
	}
	stored := *run
	if stored.TenantID == "" {
		stored.TenantID = storage.TenantFromContext(ctx)
	}
	s.runs.Add(run.ID, stored)
	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (*api.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.visible(ctx, id)
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &run, nil
}

func (s *Store) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.visible(ctx, id); !ok {
		return storage.ErrNotFound
	}
	s.runs.Remove(id)
	return nil
}

// ListRuns pages through the context tenant's runs by creation time, ID
// breaking ties.
func (s *Store) ListRuns(ctx context.Context, opts transport.ListOptions) (*transport.RunList, error) {
	s.mu.RLock()
	all := s.runs.Values()
	s.mu.RUnlock()

	matches := make([]*api.Run, 0, len(all))
	for i := range all {
		r := &all[i]
		if !storage.Visible(ctx, r.TenantID) || (opts.State != "" && r.State != opts.State) {
			continue
		}
		matches = append(matches, r)
	}

	desc := opts.Order != "asc"
	slices.SortFunc(matches, func(a, b *api.Run) int {
		c := cmp.Or(cmp.Compare(a.CreatedAt, b.CreatedAt), cmp.Compare(a.ID, b.ID))
		if desc {
			return -c
		}
		return c
	})

	if opts.After != "" {
		i := slices.IndexFunc(matches, func(r *api.Run) bool { return r.ID == opts.After })
		if i < 0 {
			// Unknown cursor: empty page.
			matches = nil
		} else {
			matches = matches[i+1:]
		}
	}

	limit := storage.EffectiveLimit(opts.Limit)
	hasMore := len(matches) > limit
	if hasMore {
		matches = matches[:limit]
	}
	return storage.NewRunList(matches, hasMore), nil
}

func (s *Store) HealthCheck(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// visible must be called with mu held. Peek leaves the eviction order
// alone, so reads never keep a run alive.
func (s *Store) visible(ctx context.Context, id string) (api.Run, bool) {
	run, ok := s.runs.Peek(id)
	if !ok || !storage.Visible(ctx, run.TenantID) {
		return api.Run{}, false
	}
	return run, true
}
