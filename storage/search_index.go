package storage

import (
	"strings"
	"time"

	"ollamanodes/model"

	"github.com/mattn/go-runewidth"
)

type HistoryMessageMatch struct {
	HistoryID    string
	HistoryName  string
	MessageIndex int
	Role         model.Role
	Preview      string
	UpdatedAt    time.Time
}

type SearchIndex struct {
	storage *HistoryStorage
}

func NewSearchIndex(storage *HistoryStorage) *SearchIndex {
	return &SearchIndex{storage: storage}
}

// Search finds non-system messages containing query, case-insensitively,
// across every saved history.
func (si *SearchIndex) Search(query string) ([]HistoryMessageMatch, error) {
	if query == "" {
		return []HistoryMessageMatch{}, nil
	}

	list, err := si.storage.List()
	if err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)
	matches := []HistoryMessageMatch{}

	for _, meta := range list {
		h, err := si.storage.Load(meta.ID)
		if err != nil {
			continue
		}

		for i, msg := range h.Messages {
			if msg.Role == model.RoleSystem {
				continue
			}
			if !strings.Contains(strings.ToLower(msg.Content), queryLower) {
				continue
			}

			preview := strings.ReplaceAll(msg.Content, "\n", " ")
			if runewidth.StringWidth(preview) > 100 {
				preview = runewidth.Truncate(preview, 100, "") + "..."
			}

			matches = append(matches, HistoryMessageMatch{
				HistoryID:    h.ID,
				HistoryName:  h.Name,
				MessageIndex: i,
				Role:         msg.Role,
				Preview:      preview,
				UpdatedAt:    h.UpdatedAt,
			})
		}
	}

	return matches, nil
}
