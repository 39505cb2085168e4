package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ollamanodes/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHistoryStorage(t *testing.T) *HistoryStorage {
	t.Helper()
	s, err := NewHistoryStorage(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestHistorySaveAndLoad(t *testing.T) {
	s := newHistoryStorage(t)

	h := &SavedHistory{
		Name:     "greeting",
		Model:    "llama3",
		Messages: model.History{model.UserMessage("hi", []byte{1, 2}), model.AssistantMessage("hello")},
	}
	require.NoError(t, s.Save(h))
	require.NotEmpty(t, h.ID)
	assert.False(t, h.CreatedAt.IsZero())

	info, err := os.Stat(filepath.Join(s.dir, h.ID+".json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := s.Load(h.ID)
	require.NoError(t, err)
	assert.Equal(t, h.Messages, loaded.Messages)
	assert.Equal(t, "llama3", loaded.Model)
}

func TestHistoryLoadMissing(t *testing.T) {
	s := newHistoryStorage(t)

	_, err := s.Load("nope")
	assert.ErrorIs(t, err, ErrHistoryNotFound)
	_, err = s.Resolve("nope")
	assert.ErrorIs(t, err, ErrHistoryNotFound)
	assert.ErrorIs(t, s.Delete("nope"), ErrHistoryNotFound)
}

func TestSaveNamedReplacesByName(t *testing.T) {
	s := newHistoryStorage(t)

	first, err := s.SaveNamed("chat", model.History{model.UserMessage("one")})
	require.NoError(t, err)
	second, err := s.SaveNamed(" chat ", model.History{model.UserMessage("one"), model.AssistantMessage("two")})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].MessageCount)

	byName, err := s.Resolve("chat")
	require.NoError(t, err)
	assert.Len(t, byName.Messages, 2)

	byID, err := s.Resolve(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "chat", byID.Name)

	_, err = s.SaveNamed("  ", nil)
	assert.Error(t, err)
}

func TestHistoryListSkipsCorruptFiles(t *testing.T) {
	s := newHistoryStorage(t)
	_, err := s.SaveNamed("ok", model.History{})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, "broken.json"), []byte("{"), 0600))

	list, err := s.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestHistoryDeleteAndExport(t *testing.T) {
	s := newHistoryStorage(t)
	h, err := s.SaveNamed("export me", model.History{model.UserMessage("x")})
	require.NoError(t, err)

	out := GenerateExportPath(t.TempDir(), h.Name)
	assert.Contains(t, filepath.Base(out), "ollama-history-export-me-")
	require.NoError(t, s.ExportToJSON("export me", out))
	assert.FileExists(t, out)

	require.NoError(t, s.Delete(h.ID))
	_, err = s.Load(h.ID)
	assert.ErrorIs(t, err, ErrHistoryNotFound)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "a-b-c", SanitizeFilename("a/b:c"))
	assert.Equal(t, "history", SanitizeFilename("..."))
	assert.Len(t, SanitizeFilename(string(make([]byte, 80))+"x"), 50)
}

func TestSearchIndex(t *testing.T) {
	s := newHistoryStorage(t)
	_, err := s.SaveNamed("a", model.History{
		model.SystemMessage("secret WORD in system"),
		model.UserMessage("find the word here"),
		model.AssistantMessage("nothing"),
	})
	require.NoError(t, err)

	idx := NewSearchIndex(s)
	matches, err := idx.Search("WORD")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 1, matches[0].MessageIndex)
	assert.Equal(t, model.RoleUser, matches[0].Role)

	matches, err = idx.Search("")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSearchIndexPreviewTruncation(t *testing.T) {
	s := newHistoryStorage(t)
	_, err := s.SaveNamed("long", model.History{
		model.UserMessage("needle " + strings.Repeat("z", 95)),
		model.UserMessage("needle " + strings.Repeat("z", 93)),
	})
	require.NoError(t, err)

	matches, err := NewSearchIndex(s).Search("needle")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "needle "+strings.Repeat("z", 93)+"...", matches[0].Preview)
	assert.Equal(t, "needle "+strings.Repeat("z", 93), matches[1].Preview)
}

func TestRunJournal(t *testing.T) {
	j, err := NewRunJournal(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, j.Record(ctx, RunRecord{RequestID: "load-1", Node: "OllamaLoadSelectedModel", Model: "m", Status: RunOK, Duration: 1500 * time.Millisecond, StartedAt: now}))
	require.NoError(t, j.Record(ctx, RunRecord{RequestID: "load-2", Node: "OllamaLoadSelectedModel", Status: RunFailed, Error: "boom", StartedAt: now}))
	require.NoError(t, j.Record(ctx, RunRecord{RequestID: "refresh-1", Node: "OllamaRefreshModelList", Status: RunOK, StartedAt: now}))

	all, err := j.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "refresh-1", all[0].RequestID)

	loads, err := j.Recent(ctx, "OllamaLoadSelectedModel", 10)
	require.NoError(t, err)
	require.Len(t, loads, 2)
	assert.Equal(t, "boom", loads[0].Error)
	assert.Equal(t, 1500*time.Millisecond, loads[1].Duration)
}

func TestRunJournalPrune(t *testing.T) {
	j, err := NewRunJournal(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	ctx := context.Background()

	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, j.Record(ctx, RunRecord{RequestID: "old", Node: "n", Status: RunOK, StartedAt: old}))
	require.NoError(t, j.Record(ctx, RunRecord{RequestID: "new", Node: "n", Status: RunOK, StartedAt: time.Now()}))

	n, err := j.Prune(ctx, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := j.Recent(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "new", left[0].RequestID)
}
