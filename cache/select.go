package cache

import (
	"errors"
	"fmt"
	"strings"

	"ollamanodes/model"

	"github.com/sahilm/fuzzy"
)

// ErrInvalidModelSelection marks a model name missing from the endpoint's
// known list. It is a warning: the daemon has the final say on unknown names.
var ErrInvalidModelSelection = errors.New("model not in known list")

const maxSuggestions = 3

// SelectionWarning describes a rejected name and the closest known names.
type SelectionWarning struct {
	Endpoint    string
	Model       string
	Suggestions []string
}

func (w *SelectionWarning) Error() string {
	msg := fmt.Sprintf("model %q is not in the known list for %s", w.Model, w.Endpoint)
	if len(w.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean: %s?)", strings.Join(w.Suggestions, ", "))
	}
	return msg
}

func (w *SelectionWarning) Unwrap() error {
	return ErrInvalidModelSelection
}

// Select builds the hand-off value for client and name. With no cached list
// for the endpoint the name is accepted as free text.
func (c *ModelCache) Select(client model.ClientConfig, name string) model.Selection {
	name = strings.TrimSpace(name)
	models := c.Get(client.Endpoint)

	sel := model.Selection{
		Client:     client,
		Model:      name,
		ModelsJSON: model.ModelsJSON(models),
		Known:      true,
	}

	if len(models) == 0 || contains(models, name) {
		return sel
	}

	sel.Known = false
	sel.Warning = &SelectionWarning{
		Endpoint:    client.Endpoint,
		Model:       name,
		Suggestions: Suggest(name, models),
	}
	return sel
}

// Suggest returns up to three known names that fuzzily match name, best first.
func Suggest(name string, models []string) []string {
	if name == "" {
		return nil
	}
	matches := fuzzy.Find(name, models)
	var out []string
	for i, m := range matches {
		if i == maxSuggestions {
			break
		}
		out = append(out, m.Str)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
