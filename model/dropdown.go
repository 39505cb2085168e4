package model

const NoModelsPlaceholder = "No models available"

// DropdownSpec is everything a widget needs to offer a model choice.
type DropdownSpec struct {
	Options     []string `json:"options"`
	Default     string   `json:"default"`
	Placeholder string   `json:"placeholder,omitempty"`
	Empty       bool     `json:"empty"`
}

// BuildDropdown turns a model list into a DropdownSpec. The current choice is
// kept as default when it is offered, otherwise the first model is.
func BuildDropdown(models []string, current string) DropdownSpec {
	if len(models) == 0 {
		return DropdownSpec{
			Options:     []string{},
			Default:     current,
			Placeholder: NoModelsPlaceholder,
			Empty:       true,
		}
	}

	opts := append([]string(nil), models...)
	def := opts[0]
	for _, m := range opts {
		if m == current {
			def = current
			break
		}
	}
	return DropdownSpec{Options: opts, Default: def}
}
