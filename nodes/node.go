// Package nodes defines the node contract the hosts drive (CLI, HTTP, MCP)
// and every Ollama node built on it.
//
// A node declares typed input and output slots in its Spec and runs against
// a loosely typed Inputs map. Inputs are decoded into per-node structs with
// mapstructure, so values may arrive as native Go values (from another node)
// or as strings and JSON (from a command line or a tool call).
//
// Nodes are stateless apart from the shared dependencies in Deps: the model
// cache, the daemon gateway and history storage.
package nodes

import (
	"context"
)

// SlotType names the kind of value a slot carries. Slots of different types
// cannot be connected, except through the wildcard.
type SlotType string

const (
	TypeString  SlotType = "STRING"
	TypeInt     SlotType = "INT"
	TypeFloat   SlotType = "FLOAT"
	TypeBoolean SlotType = "BOOLEAN"
	TypeImage   SlotType = "IMAGE"
	TypeAny     SlotType = "*"
	TypeClient  SlotType = "OLLAMA_CLIENT"
	TypeOptions SlotType = "OLLAMA_OPTIONS"
	TypeHistory SlotType = "OLLAMA_HISTORY"
)

// Accepts reports whether a value of type other may feed a slot of type t.
func (t SlotType) Accepts(other SlotType) bool {
	return t == other || t == TypeAny || other == TypeAny
}

// Slot is one declared input or output.
type Slot struct {
	Name    string
	Type    SlotType
	Default any
	// Min and Max bound numeric inputs when non-nil.
	Min, Max *float64
	// Choices restricts a STRING input to a fixed set.
	Choices   []string
	Multiline bool
	// ForceInput marks inputs that must come from another node's output.
	ForceInput bool
	Tooltip    string
}

// CachePolicy tells the executor when a node's result may be reused.
type CachePolicy string

const (
	// CacheNever always re-runs the node.
	CacheNever CachePolicy = "never"
	// CacheInputs reuses results for identical inputs.
	CacheInputs CachePolicy = "inputs"
	// CacheCustom asks the node's Fingerprinter.
	CacheCustom CachePolicy = "custom"
)

// Spec declares a node to its host.
type Spec struct {
	Name        string
	DisplayName string
	Category    string
	Description string
	// Verb prefixes the correlation id of every run, e.g. "refresh".
	Verb       string
	Required   []Slot
	Optional   []Slot
	Outputs    []Slot
	OutputNode bool
	Cache      CachePolicy
}

// Input returns the declared input slot called name.
func (s Spec) Input(name string) (Slot, bool) {
	for _, slot := range s.Required {
		if slot.Name == name {
			return slot, true
		}
	}
	for _, slot := range s.Optional {
		if slot.Name == name {
			return slot, true
		}
	}
	return Slot{}, false
}

// Inputs are the raw values handed to a node, keyed by slot name.
type Inputs map[string]any

// Result is what a node produced.
type Result struct {
	// Outputs are keyed by output slot name.
	Outputs map[string]any
	// Text is shown by hosts that display node output, such as the refresh
	// node's model listing.
	Text []string
}

// String returns a STRING output, or "" when absent or of another type.
func (r *Result) String(name string) string {
	if r == nil {
		return ""
	}
	s, _ := r.Outputs[name].(string)
	return s
}

// Node is one executable unit.
type Node interface {
	Spec() Spec
	Run(ctx context.Context, in Inputs) (*Result, error)
}

// Validator is implemented by nodes that check inputs before running.
// A returned error fails the run without calling Run.
type Validator interface {
	Validate(in Inputs) error
}

// Fingerprinter is implemented by nodes with CacheCustom. ok=false means the
// run must not be memoized.
type Fingerprinter interface {
	Fingerprint(in Inputs) (key string, ok bool)
}

func floatPtr(f float64) *float64 { return &f }
