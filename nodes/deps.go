package nodes

import (
	"ollamanodes/cache"
	"ollamanodes/config"
	"ollamanodes/model"
	"ollamanodes/storage"
)

// HistoryStore persists conversations by name. *storage.HistoryStorage
// satisfies it.
type HistoryStore interface {
	SaveNamed(name string, messages model.History) (*storage.SavedHistory, error)
	Resolve(ref string) (*storage.SavedHistory, error)
}

// Deps are shared by every node in a registry.
type Deps struct {
	Gateway model.Gateway
	Cache   *cache.ModelCache
	// Histories may be nil; the history nodes then fail with an error.
	Histories HistoryStore

	// DefaultEndpoint is offered when the cache has not seen an endpoint yet.
	DefaultEndpoint string
	// DefaultKeepAlive seeds the load node's keep_alive slot.
	DefaultKeepAlive string
}

// endpoint returns the endpoint offered as a slot default: the most recently
// refreshed one, then the configured one.
func (d Deps) endpoint() string {
	if d.Cache != nil {
		if e := d.Cache.LastEndpoint(); e != "" {
			return e
		}
	}
	if d.DefaultEndpoint != "" {
		return d.DefaultEndpoint
	}
	return config.DefaultEndpoint
}

func (d Deps) keepAlive() string {
	if d.DefaultKeepAlive != "" {
		return d.DefaultKeepAlive
	}
	return "-1"
}
