package nodes

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"ollamanodes/model"

	"github.com/mitchellh/mapstructure"
)

var (
	clientType  = reflect.TypeOf(model.ClientConfig{})
	historyType = reflect.TypeOf(model.History{})
	optionsType = reflect.TypeOf(model.Options{})
	bytesType   = reflect.TypeOf([]byte(nil))
)

// decodeInputs fills out (a pointer to a struct with mapstructure tags) from
// in. Strings are accepted wherever a client, history or options value is
// expected: a client from its endpoint, the others from JSON. Byte inputs
// (images, including those inside a history) arrive as base64 text.
func decodeInputs(in Inputs, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			stringToClientHook,
			stringToJSONHook,
			base64ToBytesHook,
		),
		WeaklyTypedInput: true,
		Result:           out,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]any(in)); err != nil {
		return fmt.Errorf("invalid inputs: %w", err)
	}
	return nil
}

func stringToClientHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != clientType {
		return data, nil
	}
	return model.ClientConfig{Endpoint: strings.TrimSpace(data.(string))}, nil
}

func stringToJSONHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || (to != historyType && to != optionsType) {
		return data, nil
	}
	s := strings.TrimSpace(data.(string))
	if s == "" {
		return reflect.Zero(to).Interface(), nil
	}

	switch to {
	case historyType:
		var h model.History
		if err := json.Unmarshal([]byte(s), &h); err != nil {
			return nil, fmt.Errorf("history is not a JSON message list: %w", err)
		}
		return h, nil
	default:
		var o model.Options
		if err := json.Unmarshal([]byte(s), &o); err != nil {
			return nil, fmt.Errorf("options are not a JSON object: %w", err)
		}
		return o, nil
	}
}

// base64ToBytesHook decodes base64 text, with or without a data: URL prefix,
// wherever bytes are expected. It runs before the weak string conversion,
// which would otherwise keep the base64 text itself.
func base64ToBytesHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != bytesType {
		return data, nil
	}
	s := strings.TrimSpace(data.(string))
	if s == "" {
		return []byte(nil), nil
	}
	if strings.HasPrefix(s, "data:") {
		if _, payload, ok := strings.Cut(s, ","); ok {
			s = payload
		}
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("bytes are not base64: %w", err)
	}
	return b, nil
}

// withDefaults returns a copy of in with every missing declared slot set to
// its default, when it has one.
func withDefaults(spec Spec, in Inputs) Inputs {
	out := make(Inputs, len(in))
	for k, v := range in {
		out[k] = v
	}
	for _, slots := range [][]Slot{spec.Required, spec.Optional} {
		for _, slot := range slots {
			if _, ok := out[slot.Name]; !ok && slot.Default != nil {
				out[slot.Name] = slot.Default
			}
		}
	}
	return out
}

// checkInputs enforces required slots, numeric bounds and choices.
func checkInputs(spec Spec, in Inputs) error {
	for _, slot := range spec.Required {
		if v, ok := in[slot.Name]; !ok || v == nil {
			return fmt.Errorf("missing required input %q", slot.Name)
		}
	}

	for _, slots := range [][]Slot{spec.Required, spec.Optional} {
		for _, slot := range slots {
			v, ok := in[slot.Name]
			if !ok || v == nil {
				continue
			}
			if slot.Min != nil || slot.Max != nil {
				var f float64
				if err := mapstructure.WeakDecode(v, &f); err != nil {
					return fmt.Errorf("input %q must be a number: %w", slot.Name, err)
				}
				if slot.Min != nil && f < *slot.Min {
					return fmt.Errorf("input %q is %v, below minimum %v", slot.Name, f, *slot.Min)
				}
				if slot.Max != nil && f > *slot.Max {
					return fmt.Errorf("input %q is %v, above maximum %v", slot.Name, f, *slot.Max)
				}
			}
			if len(slot.Choices) > 0 {
				s, _ := v.(string)
				if !containsString(slot.Choices, s) {
					return fmt.Errorf("input %q must be one of %s", slot.Name, strings.Join(slot.Choices, ", "))
				}
			}
		}
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
