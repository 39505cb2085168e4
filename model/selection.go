package model

import "encoding/json"

// Selection is what a model-selection step hands downstream: the client it
// was made against, the chosen name and the list it was checked against.
type Selection struct {
	Client     ClientConfig
	Model      string
	ModelsJSON string
	// Known is false when a cached list exists and does not contain Model.
	Known bool
	// Warning carries a soft validation problem; it never fails a node.
	Warning error
}

// ModelsJSON serializes a model list the way nodes exchange it: a JSON array
// indented by two spaces. A nil or empty list becomes "[]".
func ModelsJSON(models []string) string {
	if len(models) == 0 {
		return "[]"
	}
	data, err := json.MarshalIndent(models, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(data)
}

// ParseModelsJSON decodes a serialized model list.
func ParseModelsJSON(s string) ([]string, error) {
	var models []string
	if err := json.Unmarshal([]byte(s), &models); err != nil {
		return nil, err
	}
	if models == nil {
		models = []string{}
	}
	return models, nil
}
