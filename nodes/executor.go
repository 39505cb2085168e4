package nodes

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"ollamanodes/config"
	"ollamanodes/model"
	"ollamanodes/storage"
)

// Event describes one finished execution.
type Event struct {
	RequestID string
	NodeID    string
	Spec      Spec
	Inputs    Inputs
	Result    *Result
	Err       error
	Cached    bool
	Duration  time.Duration
}

// Listener is notified after every execution, successful or not.
type Listener interface {
	NodeExecuted(ctx context.Context, ev Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, ev Event)

func (f ListenerFunc) NodeExecuted(ctx context.Context, ev Event) { f(ctx, ev) }

// Journal records executions. *storage.RunJournal satisfies it.
type Journal interface {
	Record(ctx context.Context, r storage.RunRecord) error
}

// Observer receives execution metrics.
type Observer interface {
	ObserveNodeRun(node, status string, elapsed time.Duration)
}

// Request names the node to run and its raw inputs. NodeID identifies the
// node instance in a host graph; it may be empty.
type Request struct {
	NodeID string
	Node   string
	Inputs Inputs
}

// DefaultMemoSize bounds how many node instances keep a memoized result.
const DefaultMemoSize = 256

// memoEntry is the last memoizable result of one node instance, keyed by the
// inputs that produced it.
type memoEntry struct {
	key     string
	res     *Result
	lastUse uint64
}

// Executor runs nodes from a registry: it validates inputs, memoizes by
// cache policy, and fans results out to the journal, metrics and listeners.
//
// Like a graph host, the memo keeps one result per node instance (node name
// plus NodeID), so a rerun with new inputs replaces the old entry. At most
// memoSize instances are kept; the least recently used one is dropped first.
type Executor struct {
	registry *Registry
	journal  Journal
	observer Observer
	memoSize int

	mu        sync.Mutex
	listeners []Listener
	memo      map[string]*memoEntry
	clock     uint64
}

type ExecutorOption func(*Executor)

func WithJournal(j Journal) ExecutorOption {
	return func(e *Executor) { e.journal = j }
}

func WithObserver(o Observer) ExecutorOption {
	return func(e *Executor) { e.observer = o }
}

func WithListener(l Listener) ExecutorOption {
	return func(e *Executor) { e.listeners = append(e.listeners, l) }
}

// WithMemoSize bounds the memo to n node instances. n <= 0 disables it.
func WithMemoSize(n int) ExecutorOption {
	return func(e *Executor) { e.memoSize = n }
}

// NewExecutor creates an executor over registry.
func NewExecutor(registry *Registry, opts ...ExecutorOption) *Executor {
	e := &Executor{
		registry: registry,
		memoSize: DefaultMemoSize,
		memo:     make(map[string]*memoEntry),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the registry the executor runs nodes from.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// Subscribe adds a listener.
func (e *Executor) Subscribe(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, l)
}

// ClearMemo drops every memoized result.
func (e *Executor) ClearMemo() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.memo = make(map[string]*memoEntry)
}

// MemoLen reports how many node instances hold a memoized result.
func (e *Executor) MemoLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.memo)
}

// Run executes the named node with inputs.
func (e *Executor) Run(ctx context.Context, name string, in Inputs) (*Result, error) {
	return e.Execute(ctx, Request{Node: name, Inputs: in})
}

// Execute runs one node. A node failure is returned unchanged so its
// original error text reaches the host.
func (e *Executor) Execute(ctx context.Context, req Request) (*Result, error) {
	node, err := e.registry.Get(req.Node)
	if err != nil {
		return nil, err
	}

	spec := node.Spec()
	requestID := config.NewRequestID(spec.Verb)
	ctx = config.WithRequestID(ctx, requestID)
	start := time.Now()

	in := withDefaults(spec, req.Inputs)
	ev := Event{RequestID: requestID, NodeID: req.NodeID, Spec: spec, Inputs: in}

	if err := e.validate(node, spec, in); err != nil {
		ev.Err = fmt.Errorf("%s: %w", spec.Name, err)
		e.finish(ctx, ev, start)
		return nil, ev.Err
	}

	slot := spec.Name + "#" + req.NodeID
	key, memoize := e.memoKey(node, spec, in)
	memoize = memoize && e.memoSize > 0
	if memoize {
		if cached, ok := e.lookup(slot, key); ok {
			config.Debugf(ctx, "%s: reusing memoized result", spec.Name)
			ev.Result = cached
			ev.Cached = true
			e.finish(ctx, ev, start)
			return cached, nil
		}
	}

	res, err := node.Run(ctx, in)
	if err != nil {
		ev.Err = err
		e.finish(ctx, ev, start)
		return nil, err
	}
	if res == nil {
		res = &Result{}
	}
	if memoize {
		e.store(slot, key, res)
	}

	ev.Result = res
	e.finish(ctx, ev, start)
	return cloneResult(res), nil
}

func (e *Executor) validate(node Node, spec Spec, in Inputs) error {
	if err := checkInputs(spec, in); err != nil {
		return err
	}
	if v, ok := node.(Validator); ok {
		return v.Validate(in)
	}
	return nil
}

func (e *Executor) memoKey(node Node, spec Spec, in Inputs) (string, bool) {
	switch spec.Cache {
	case CacheInputs:
		data, err := json.Marshal(in)
		if err != nil {
			return "", false
		}
		sum := sha256.Sum256(data)
		return spec.Name + ":" + hex.EncodeToString(sum[:]), true
	case CacheCustom:
		f, ok := node.(Fingerprinter)
		if !ok {
			return "", false
		}
		fp, ok := f.Fingerprint(in)
		if !ok {
			return "", false
		}
		return spec.Name + ":" + fp, true
	default:
		return "", false
	}
}

func (e *Executor) lookup(slot, key string) (*Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.memo[slot]
	if !ok || entry.key != key {
		return nil, false
	}
	e.clock++
	entry.lastUse = e.clock
	return cloneResult(entry.res), true
}

func (e *Executor) store(slot, key string, res *Result) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clock++
	if _, ok := e.memo[slot]; !ok && len(e.memo) >= e.memoSize {
		e.evictOldest()
	}
	e.memo[slot] = &memoEntry{key: key, res: cloneResult(res), lastUse: e.clock}
}

// evictOldest drops the least recently used entry. Callers hold e.mu.
func (e *Executor) evictOldest() {
	var (
		oldest    string
		oldestUse uint64
		found     bool
	)
	for slot, entry := range e.memo {
		if !found || entry.lastUse < oldestUse {
			oldest, oldestUse, found = slot, entry.lastUse, true
		}
	}
	if found {
		delete(e.memo, oldest)
	}
}

func (e *Executor) finish(ctx context.Context, ev Event, start time.Time) {
	ev.Duration = time.Since(start)

	status := storage.RunOK
	switch {
	case ev.Err != nil:
		status = storage.RunFailed
	case ev.Cached:
		status = storage.RunCached
	}

	if e.observer != nil {
		e.observer.ObserveNodeRun(ev.Spec.Name, status, ev.Duration)
	}

	if e.journal != nil {
		endpoint, modelName := runTarget(ev.Inputs)
		rec := storage.RunRecord{
			RequestID: ev.RequestID,
			Node:      ev.Spec.Name,
			Endpoint:  endpoint,
			Model:     modelName,
			Status:    status,
			Duration:  ev.Duration,
			StartedAt: start,
		}
		if ev.Err != nil {
			rec.Error = ev.Err.Error()
		}
		if err := e.journal.Record(ctx, rec); err != nil {
			config.Debugf(ctx, "journal: %v", err)
		}
	}

	e.mu.Lock()
	listeners := append([]Listener(nil), e.listeners...)
	e.mu.Unlock()
	for _, l := range listeners {
		l.NodeExecuted(ctx, ev)
	}
}

// runTarget extracts the endpoint and model a run was aimed at, for the
// journal.
func runTarget(in Inputs) (endpoint, modelName string) {
	switch c := in["client"].(type) {
	case model.ClientConfig:
		endpoint = c.Endpoint
	case map[string]any:
		endpoint, _ = c["endpoint"].(string)
	case string:
		endpoint = c
	}
	if endpoint == "" {
		endpoint, _ = in["endpoint"].(string)
	}
	modelName, _ = in["model"].(string)
	return endpoint, modelName
}

func cloneResult(r *Result) *Result {
	out := &Result{Text: append([]string(nil), r.Text...)}
	if r.Outputs != nil {
		out.Outputs = make(map[string]any, len(r.Outputs))
		for k, v := range r.Outputs {
			out.Outputs[k] = v
		}
	}
	return out
}
