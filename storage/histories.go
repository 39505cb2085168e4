package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ollamanodes/model"

	"github.com/google/uuid"
)

// ErrHistoryNotFound is returned when no saved history matches an id or name.
var ErrHistoryNotFound = errors.New("history not found")

// SavedHistory is a conversation persisted between workflow runs
type SavedHistory struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Model     string        `json:"model,omitempty"`
	Endpoint  string        `json:"endpoint,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Messages  model.History `json:"messages"`
}

// HistoryMetadata is a lightweight version of SavedHistory for listing
type HistoryMetadata struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Model        string    `json:"model,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// HistoryStorage keeps one JSON file per saved history
type HistoryStorage struct {
	dir string
}

// NewHistoryStorage creates the histories directory under dataDir
func NewHistoryStorage(dataDir string) (*HistoryStorage, error) {
	dir := filepath.Join(dataDir, "histories")

	// 0700: conversations are private
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create histories directory: %w", err)
	}

	return &HistoryStorage{dir: dir}, nil
}

func (s *HistoryStorage) path(id string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.json", id))
}

// Save writes h to disk, assigning an id on first save
func (s *HistoryStorage) Save(h *SavedHistory) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}

	h.UpdatedAt = time.Now()
	if h.CreatedAt.IsZero() {
		h.CreatedAt = h.UpdatedAt
	}
	if h.Messages == nil {
		h.Messages = model.History{}
	}

	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := os.WriteFile(s.path(h.ID), data, 0600); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}

	return nil
}

// SaveNamed stores messages under name, replacing any history already
// saved with that name.
func (s *HistoryStorage) SaveNamed(name string, messages model.History) (*SavedHistory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("history name is empty")
	}

	h := &SavedHistory{Name: name}
	existing, err := s.findByName(name)
	if err != nil && !errors.Is(err, ErrHistoryNotFound) {
		return nil, err
	}
	if existing != nil {
		h = existing
	}

	h.Messages = messages.Clone()
	if err := s.Save(h); err != nil {
		return nil, err
	}
	return h, nil
}

// Load reads a history by id
func (s *HistoryStorage) Load(id string) (*SavedHistory, error) {
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrHistoryNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history file: %w", err)
	}

	var h SavedHistory
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}

	return &h, nil
}

// Resolve loads a history by id, falling back to the newest one with a
// matching name.
func (s *HistoryStorage) Resolve(ref string) (*SavedHistory, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrHistoryNotFound)
	}
	if _, err := uuid.Parse(ref); err == nil {
		if h, err := s.Load(ref); err == nil {
			return h, nil
		}
	}
	return s.findByName(ref)
}

func (s *HistoryStorage) findByName(name string) (*SavedHistory, error) {
	list, err := s.List()
	if err != nil {
		return nil, err
	}
	for _, meta := range list {
		if meta.Name == name {
			return s.Load(meta.ID)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrHistoryNotFound, name)
}

// List returns metadata for all histories, newest first
func (s *HistoryStorage) List() ([]HistoryMetadata, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read histories directory: %w", err)
	}

	var out []HistoryMetadata
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		h, err := s.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue // Skip corrupted files
		}

		out = append(out, HistoryMetadata{
			ID:           h.ID,
			Name:         h.Name,
			Model:        h.Model,
			CreatedAt:    h.CreatedAt,
			UpdatedAt:    h.UpdatedAt,
			MessageCount: len(h.Messages),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	return out, nil
}

// Delete removes a history by id
func (s *HistoryStorage) Delete(id string) error {
	if err := os.Remove(s.path(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrHistoryNotFound, id)
		}
		return fmt.Errorf("failed to delete history file: %w", err)
	}
	return nil
}

// ExportToJSON writes a history to exportPath
func (s *HistoryStorage) ExportToJSON(ref, exportPath string) error {
	h, err := s.Resolve(ref)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(exportPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// SanitizeFilename removes or replaces characters that are invalid in filenames
func SanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ', '\n', '\r':
			return '-'
		}
		return r
	}, name)

	name = strings.Trim(name, "-.")

	if len(name) > 50 {
		name = name[:50]
	}

	if name == "" {
		name = "history"
	}

	return name
}

// GenerateExportPath builds a timestamped export path in dir
func GenerateExportPath(dir, name string) string {
	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("ollama-history-%s-%s.json", SanitizeFilename(name), timestamp)
	return filepath.Join(dir, filename)
}
