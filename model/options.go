package model

import (
	"encoding/json"
	"fmt"
	"math"
)

// Generation option keys understood by the daemon.
const (
	OptTemperature   = "temperature"
	OptSeed          = "seed"
	OptNumPredict    = "num_predict"
	OptTopP          = "top_p"
	OptTopK          = "top_k"
	OptRepeatPenalty = "repeat_penalty"
)

// Options is a set of generation parameters. Values are never mutated in
// place; every operation returns a fresh map.
type Options map[string]any

// With returns a copy of o with key set to value.
func (o Options) With(key string, value any) Options {
	out := make(Options, len(o)+1)
	for k, v := range o {
		out[k] = v
	}
	out[key] = value
	return out
}

// Merge combines option sets left to right; later sets win on shared keys.
func Merge(sets ...Options) Options {
	out := Options{}
	for _, set := range sets {
		for k, v := range set {
			out[k] = v
		}
	}
	return out
}

// MergeJSON decodes a JSON object and merges it over o. Non-object JSON
// leaves o unchanged.
func (o Options) MergeJSON(raw string) (Options, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("invalid JSON in extra_body: %w", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return Merge(o), nil
	}
	return Merge(o, Options(obj)), nil
}

// Seed returns the explicit seed, if one is set and integral.
func (o Options) Seed() (int64, bool) {
	v, ok := o[OptSeed]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == math.Trunc(n) {
			return int64(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
	}
	return 0, false
}

// HasSeed reports whether the seed key is present at all.
func (o Options) HasSeed() bool {
	_, ok := o[OptSeed]
	return ok
}

func (o Options) Map() map[string]any {
	if len(o) == 0 {
		return nil
	}
	return map[string]any(Merge(o))
}
