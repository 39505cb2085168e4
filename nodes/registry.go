package nodes

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps node class names to nodes.
type Registry struct {
	mu    sync.RWMutex
	nodes map[string]Node
	order []string
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		nodes: make(map[string]Node),
	}
}

// Register adds n under its Spec name.
// If a node with the same name exists, it is overwritten.
func (r *Registry) Register(n Node) {
	name := n.Spec().Name
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.nodes[name]; !exists {
		r.order = append(r.order, name)
	}
	r.nodes[name] = n
}

// Get finds a node by class name, or case-insensitively by display name.
func (r *Registry) Get(name string) (Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if n, ok := r.nodes[name]; ok {
		return n, nil
	}
	for _, n := range r.nodes {
		if strings.EqualFold(n.Spec().DisplayName, name) {
			return n, nil
		}
	}
	return nil, fmt.Errorf("node not found: %s", name)
}

// Names returns class names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Specs returns every node's spec, sorted by category then name.
func (r *Registry) Specs() []Spec {
	r.mu.RLock()
	specs := make([]Spec, 0, len(r.nodes))
	for _, name := range r.order {
		specs = append(specs, r.nodes[name].Spec())
	}
	r.mu.RUnlock()

	sort.SliceStable(specs, func(i, j int) bool {
		if specs[i].Category != specs[j].Category {
			return specs[i].Category < specs[j].Category
		}
		return specs[i].Name < specs[j].Name
	})
	return specs
}

// DisplayNames maps class names to display names.
func (r *Registry) DisplayNames() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.nodes))
	for name, n := range r.nodes {
		out[name] = n.Spec().DisplayName
	}
	return out
}

// NewDefaultRegistry registers every Ollama node against deps.
func NewDefaultRegistry(deps Deps) *Registry {
	r := NewRegistry()
	r.Register(&RefreshModelList{deps: deps})
	r.Register(&SelectModel{deps: deps})
	r.Register(&LoadModel{deps: deps})
	r.Register(&UnloadModel{deps: deps})
	r.Register(&Client{deps: deps})
	r.Register(&ModelSelector{deps: deps})
	r.Register(&ChatCompletion{deps: deps})
	for _, n := range newOptionNodes() {
		r.Register(n)
	}
	r.Register(&DebugHistory{})
	r.Register(&HistoryLength{})
	r.Register(&SaveHistory{deps: deps})
	r.Register(&LoadHistory{deps: deps})
	return r
}
