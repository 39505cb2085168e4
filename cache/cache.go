// Package cache keeps the most recently fetched model list per daemon
// endpoint and validates model selections against it.
//
// The cache is an explicit object owned by whoever drives the nodes (CLI,
// HTTP server, MCP server). Tests build isolated instances with New.
//
// Policy: refresh always overwrites, there is no TTL or eviction, and readers
// never block on a refresh in progress. They see the previous list until the
// new one is committed.
package cache

import (
	"context"
	"sort"
	"sync"

	"ollamanodes/config"

	"golang.org/x/sync/errgroup"
)

// Lister fetches model names from one endpoint. model.Gateway satisfies it.
type Lister interface {
	ListModels(ctx context.Context, endpoint string) ([]string, error)
}

// ModelCache maps endpoint strings (verbatim, not normalized) to model names.
type ModelCache struct {
	lister Lister

	mu      sync.RWMutex
	entries map[string][]string
	last    string
}

func New(lister Lister) *ModelCache {
	return &ModelCache{
		lister:  lister,
		entries: make(map[string][]string),
	}
}

// Refresh fetches the endpoint's models and replaces its entry. The fetch
// runs outside the lock; on error nothing is written.
func (c *ModelCache) Refresh(ctx context.Context, endpoint string) ([]string, error) {
	names, err := c.lister.ListModels(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	c.Set(endpoint, names)
	config.Debugf(ctx, "cache: %s -> %d models", endpoint, len(names))
	return copyList(names), nil
}

// Get returns a copy of the last committed list, or an empty slice when
// the endpoint was never refreshed.
func (c *ModelCache) Get(endpoint string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyList(c.entries[endpoint])
}

// Has reports whether endpoint has a committed entry, even an empty one.
func (c *ModelCache) Has(endpoint string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[endpoint]
	return ok
}

// Set commits names for endpoint, replacing any previous entry.
func (c *ModelCache) Set(endpoint string, names []string) {
	list := copyList(names)
	c.mu.Lock()
	c.entries[endpoint] = list
	c.last = endpoint
	c.mu.Unlock()
}

// LastEndpoint returns the endpoint of the most recent commit, or "".
func (c *ModelCache) LastEndpoint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// Endpoints returns every endpoint with an entry, sorted.
func (c *ModelCache) Endpoints() []string {
	c.mu.RLock()
	out := make([]string, 0, len(c.entries))
	for e := range c.entries {
		out = append(out, e)
	}
	c.mu.RUnlock()
	sort.Strings(out)
	return out
}

// RefreshAll refreshes every endpoint concurrently. One failure does not
// cancel the others; endpoints that fail keep their previous entry and the
// first error is returned after all finish.
func (c *ModelCache) RefreshAll(ctx context.Context, endpoints []string) error {
	var g errgroup.Group
	for _, endpoint := range endpoints {
		g.Go(func() error {
			_, err := c.Refresh(ctx, endpoint)
			if err != nil {
				config.Infof(ctx, "⚠️  Could not warm %s: %v", endpoint, err)
			}
			return err
		})
	}
	return g.Wait()
}

func copyList(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	return out
}
